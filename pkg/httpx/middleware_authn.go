package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/activault/pkg/slogx"
)

// APIKeyVerifier is the shared-secret arm of the external auth collaborator.
// Implementations check the raw key against stored hashes and expiry.
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, raw string) (identity string, err error)
}

// AuthnConfig wires the two accepted credential kinds. The core only ever
// consumes the resulting (authenticated, identity) pair from context.
type AuthnConfig struct {
	// JWTSecret is the HS256 shared secret bearer tokens are verified
	// against. Empty disables bearer auth.
	JWTSecret []byte

	// APIKeys validates X-API-Key credentials. Nil disables API key auth.
	APIKeys APIKeyVerifier

	// AllowBearerOnly restricts the route to bearer tokens (used for key
	// management, where authenticating with the thing being minted would
	// be circular).
	AllowBearerOnly bool
}

// AuthnMiddleware authenticates the request via a bearer JWT or an API key
// and injects the caller identity into the request context. Requests with
// neither credential are rejected with 401.
func AuthnMiddleware(cfg AuthnConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
				raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

				identity, err := verifyBearer(raw, cfg.JWTSecret)
				if err != nil {
					log.Warn("bearer verification failed", "err", err)
					writeAuthnError(w, "token verification failed")
					return
				}

				ctx = context.WithValue(ctx, CtxKeyIdentity, identity)
				ctx = context.WithValue(ctx, CtxKeyAuthKind, "bearer")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if raw := r.Header.Get("X-API-Key"); raw != "" && cfg.APIKeys != nil && !cfg.AllowBearerOnly {
				identity, err := cfg.APIKeys.VerifyAPIKey(ctx, raw)
				if err != nil {
					log.Warn("api key verification failed", "err", err)
					writeAuthnError(w, "api key verification failed")
					return
				}

				ctx = context.WithValue(ctx, CtxKeyIdentity, identity)
				ctx = context.WithValue(ctx, CtxKeyAuthKind, "api_key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			writeAuthnError(w, "missing credentials")
		})
	}
}

// verifyBearer validates an HS256-signed token and returns its subject.
func verifyBearer(raw string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", jwt.ErrTokenUnverifiable
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}

// RFC 6750-style error response for failed authentication.
func writeAuthnError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:            "unauthenticated",
		ErrorDescription: desc,
	})
}
