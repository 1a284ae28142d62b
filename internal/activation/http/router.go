package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/activault/internal/activation/service"
	"github.com/aussiebroadwan/activault/internal/activation/store"
	"github.com/aussiebroadwan/activault/pkg/httpx"
	"github.com/aussiebroadwan/activault/pkg/ratelimit"
	"github.com/aussiebroadwan/activault/pkg/slogx"

	_ "github.com/aussiebroadwan/activault/api/activation" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	limiter ratelimit.RateLimiter
	authn   httpx.AuthnConfig

	// coarse is the abuse guard on the mutating endpoints; fine smooths
	// bursts on everything under /v1.
	coarse ratelimit.Policy
	fine   ratelimit.Policy

	CodeService      *service.CodeService
	RetentionService *service.RetentionService
	APIKeyService    *service.APIKeyService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	limiter ratelimit.RateLimiter,
	authn httpx.AuthnConfig,
	coarse, fine ratelimit.Policy,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		limiter:      limiter,
		authn:        authn,
		coarse:       coarse,
		fine:         fine,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// Use appends middleware to the global chain applied around every route.
func (r *Router) Use(mws ...httpx.Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *Router) ApplyRoutes() {
	r.registerCodes()
	r.registerCleanup()
	r.registerAPIKeys()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Activault Activation Code Service API
//	@version		0.1.0
//	@description	Activation code lifecycle service: single-use code generation, exactly-once
//	@description	redemption, retention sweeps with preview mode, and usage statistics.
//	@description
//	@description				Mutating endpoints carry an additional coarse abuse guard on top of the
//	@description				fine per-client limit; rejections include Retry-After.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/activault
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token signed with the shared secret. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Minted API key. Format: "{id}.{secret}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// guarded wraps a handler with authentication plus the fine per-client
// limit, and optionally the coarse abuse guard used on mutating endpoints.
// op scopes the guard budget to the operation so one endpoint cannot burn
// another's allowance.
func (r *Router) guarded(h http.Handler, op string, withCoarse bool) http.Handler {
	mws := []httpx.Middleware{
		httpx.AuthnMiddleware(r.authn),
	}
	if withCoarse {
		mws = append(mws, httpx.GuardMiddleware(r.limiter, named(r.coarse, op), httpx.ClientKeyExtractor))
	}
	mws = append(mws, httpx.GuardMiddleware(r.limiter, named(r.fine, op), httpx.ClientKeyExtractor))

	return httpx.Chain(h, mws...)
}

func named(p ratelimit.Policy, op string) ratelimit.Policy {
	p.Name = p.Name + ":" + op
	return p
}

func (r *Router) registerCodes() {
	generate := &GenerateHandler{CodeService: r.CodeService}
	redeem := &RedeemHandler{CodeService: r.CodeService}
	reads := &CodesReadHandler{CodeService: r.CodeService}

	// Mutating endpoints get the coarse abuse guard on top of the fine one.
	r.Mux.Handle("POST /v1/codes", r.guarded(generate, "generate", true))
	r.Mux.Handle("POST /v1/codes/redeem", r.guarded(redeem, "redeem", true))

	r.Mux.Handle("GET /v1/codes", r.guarded(http.HandlerFunc(reads.HandleList), "list", false))
	r.Mux.Handle("GET /v1/codes/stats", r.guarded(http.HandlerFunc(reads.HandleStats), "stats", false))
	r.Mux.Handle("GET /v1/codes/{code}", r.guarded(http.HandlerFunc(reads.HandleDetail), "detail", false))
}

func (r *Router) registerCleanup() {
	h := &CleanupHandler{RetentionService: r.RetentionService}

	r.Mux.Handle("POST /v1/cleanup/stale-unused", r.guarded(http.HandlerFunc(h.HandleStaleUnused), "cleanup_stale", false))
	r.Mux.Handle("POST /v1/cleanup/expired-unused", r.guarded(http.HandlerFunc(h.HandleExpiredUnused), "cleanup_expired", false))
}

func (r *Router) registerAPIKeys() {
	h := &APIKeyMintHandler{APIKeyService: r.APIKeyService}

	// Bearer only: an API key must not be able to mint further keys.
	bearerOnly := r.authn
	bearerOnly.AllowBearerOnly = true

	r.Mux.Handle("POST /v1/apikeys",
		httpx.Chain(h,
			httpx.AuthnMiddleware(bearerOnly),
			httpx.GuardMiddleware(r.limiter, named(r.fine, "apikey_mint"), httpx.ClientKeyExtractor),
		),
	)
}

func (r *Router) registerSystem() {
	// Probes sit outside authn; the token-bucket throttle keeps them from
	// being a free amplification target.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.ThrottleByIP(httpx.SystemThrottle),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.ThrottleByIP(httpx.SystemThrottle),
		),
	)
}
