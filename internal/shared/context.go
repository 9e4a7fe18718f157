package shared

import (
	"context"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-chi/httprate"
	"golang.org/x/crypto/blake2b"
)

type tokenContextKey struct{}

// ContextWithToken stores the caller's backend bearer token in context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext extracts the backend bearer token from context.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// TokenFromRequest reads the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// CallerKey identifies the caller for rate limiting: a short hash of the
// bearer token when present, the client IP otherwise.
func CallerKey(r *http.Request) (string, error) {
	token := TokenFromContext(r.Context())
	if token == "" {
		token = TokenFromRequest(r)
	}
	if token != "" {
		sum := blake2b.Sum256([]byte(token))
		return "token:" + hex.EncodeToString(sum[:8]), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
