package auth

import "context"

type ctxKey string

const claimsKey ctxKey = "principalClaims"

// Claims is the authenticated caller attached to the request context.
// Subject is the domain principal id; role decisions are made against the
// role registry, not against anything carried in the token.
type Claims struct {
	Subject string
	JWTID   string
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(claimsKey).(Claims); ok {
		return v
	}
	return Claims{}
}

// Principal returns the caller's principal id, or "" when unauthenticated.
func Principal(ctx context.Context) string {
	return FromContext(ctx).Subject
}
