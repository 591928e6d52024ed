// Package authctx carries the verified Firebase identity through the request
// context. Only the auth middleware writes these values; handlers read them.
package authctx

import (
	"context"
)

type uidCtxKey struct{}
type claimsCtxKey struct{}

func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, uidCtxKey{}, uid)
}

// UID returns the authenticated user's uid. ok is false on unauthenticated
// requests, so callers never see an empty uid as a real identity.
func UID(ctx context.Context) (string, bool) {
	v := ctx.Value(uidCtxKey{})
	uid, ok := v.(string)
	return uid, ok && uid != ""
}

func WithClaims(ctx context.Context, claims map[string]interface{}) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

func Claims(ctx context.Context) (map[string]interface{}, bool) {
	v := ctx.Value(claimsCtxKey{})
	claims, ok := v.(map[string]interface{})
	return claims, ok
}
