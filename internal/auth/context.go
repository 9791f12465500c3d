package auth

import "context"

type contextKey string

const claimsContextKey = contextKey("claims")

func WithClaims(ctx context.Context, claims *AppClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *AppClaims {
	if claims, ok := ctx.Value(claimsContextKey).(*AppClaims); ok {
		return claims
	}
	return nil
}
