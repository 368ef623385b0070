package shared

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

type tokenContextKey struct{}

// ContextWithToken stores the caller's bearer token in context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext extracts the bearer token from context.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

// OwnerFromContext derives a stable, non-reversible key for the caller used
// to scope drafts. It is empty when no token is present.
func OwnerFromContext(ctx context.Context) string {
	token := TokenFromContext(ctx)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:12])
}
