package httpx

import "context"

type ctxKey string

const (
	// CtxKeyIdentity is the opaque caller identity established by the authn
	// middleware (JWT subject or API key ID).
	CtxKeyIdentity ctxKey = "identity"
	// CtxKeyAuthKind records which collaborator authenticated the caller
	// ("bearer" or "api_key").
	CtxKeyAuthKind ctxKey = "auth_kind"
)

// IdentityFromContext returns the authenticated caller identity, or "" for
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyIdentity).(string); ok {
		return v
	}
	return ""
}
