package quantity

import (
	"fmt"
	"sort"

	"github.com/odyssey-erp/tekstil/internal/textile"
)

// FilterOpen drops documents that are already complete. Documents without a
// recognised unit or total are kept: they cannot be judged complete.
func FilterOpen(docs []textile.Document, calc Calculator) []textile.Document {
	out := make([]textile.Document, 0, len(docs))
	for _, doc := range docs {
		if calc.IsComplete(doc) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// PartitionVia splits documents into the regular and VIA pools.
func PartitionVia(docs []textile.Document) (regular, via []textile.Document) {
	for _, doc := range docs {
		if doc.IsVia {
			via = append(via, doc)
			continue
		}
		regular = append(regular, doc)
	}
	return regular, via
}

// Option is one dropdown entry of a picker.
type Option struct {
	ID           int64  `json:"id"`
	Number       string `json:"number"`
	Period       string `json:"period,omitempty"`
	Counterparty string `json:"counterparty"`
	IsVia        bool   `json:"is_via"`
	Unit         string `json:"unit"`
	Status       string `json:"status"`
}

// Options converts documents into picker entries labelled by calc, newest
// document number first. Numbers that are not PREFIX/TYPE/MMYY-NNNNN keep
// their backend order after the parsed ones.
func Options(docs []textile.Document, calc Calculator) []Option {
	type entry struct {
		opt    Option
		seq    textile.SequenceNumber
		parsed bool
	}
	entries := make([]entry, 0, len(docs))
	for _, doc := range docs {
		e := entry{opt: Option{
			ID:           doc.ID,
			Number:       doc.Number,
			Counterparty: doc.CounterpartyName,
			IsVia:        doc.IsVia,
			Unit:         doc.UnitName,
			Status:       calc.Document(doc).Label(),
		}}
		if seq, err := textile.ParseSequence(doc.Number); err == nil {
			e.seq, e.parsed = seq, true
			e.opt.Period = fmt.Sprintf("%02d/%d", seq.Month, seq.Year)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if !a.parsed {
			return false
		}
		return a.seq.After(b.seq)
	})
	out := make([]Option, len(entries))
	for i, e := range entries {
		out[i] = e.opt
	}
	return out
}
