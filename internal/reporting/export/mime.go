package export

import (
	"log"
	"mime"
)

var fallbackTypes = map[string]string{
	FormatExcel: ExcelContentType,
	FormatPDF:   "application/pdf",
	FormatHTML:  "text/html; charset=utf-8",
}

func init() {
	for format, typ := range fallbackTypes {
		ensureMimeType("."+format, typ)
	}
}

// minimal containers ship without /etc/mime.types, so register the artifact
// types when the system table lacks them.
func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("export: register MIME type for %s: %v", ext, err)
	}
}

// ContentType returns the MIME type served for an artifact format.
func ContentType(format string) string {
	if typ, ok := fallbackTypes[format]; ok {
		return typ
	}
	if typ := mime.TypeByExtension("." + format); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
