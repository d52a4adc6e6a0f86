package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "boardly/internal/api/context"
	"boardly/internal/api/handlers"
	"boardly/internal/api/middleware"
	"boardly/internal/engine/widgets"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/auth"
)

type Dependencies struct {
	HealthHandler      *handlers.HealthHandler
	OrgHandler         *handlers.OrgHandler
	WebhookHandler     *handlers.WebhookHandler
	PostHandler        *handlers.PostHandler
	ChangelogHandler   *handlers.ChangelogHandler
	PublicHandler      *handlers.PublicHandler
	EmbedHandler       *handlers.EmbedHandler
	IntegrationHandler *handlers.IntegrationHandler
	AuditHandler       *handlers.AuditHandler
	AuthMiddleware     *middleware.AuthMiddleware
	TenantMiddleware   *middleware.TenantMiddleware
	RateLimit          *middleware.RateLimitMiddleware
}

type mw = func(http.HandlerFunc) http.HandlerFunc

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	handle := func(method, path string, handler http.HandlerFunc, middlewares ...mw) {
		router.Handle(method, path, chain(handler, append([]mw{middleware.Instrument(path)}, middlewares...)...))
	}

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
	}

	// Operational
	handle(http.MethodGet, "/health", deps.HealthHandler.Check)
	router.Handler(http.MethodGet, "/metrics", handlers.Metrics())

	// Widget loaders, embed pages and embed state
	for _, spec := range widgets.Kinds() {
		handle(http.MethodGet, "/"+spec.Script, deps.EmbedHandler.Loader(spec.Kind))
		handle(http.MethodGet, spec.EmbedPath(), deps.EmbedHandler.Page(spec.Kind))
		handle(http.MethodGet, spec.StatePath(), deps.EmbedHandler.State(spec.Kind))
	}

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	limits := deps.RateLimit
	admin := middleware.RequireRole(auth.RoleAdmin, auth.RoleOwner)

	// Public widget API
	handle(http.MethodGet, "/api/v1/public/:org_slug/posts",
		deps.PublicHandler.ListPosts, tenantMid.HandlePublic)
	handle(http.MethodPost, "/api/v1/public/:org_slug/posts",
		deps.PublicHandler.CreatePost, limits.Public, tenantMid.HandlePublic)
	handle(http.MethodPost, "/api/v1/public/:org_slug/posts/:post_id/votes",
		deps.PublicHandler.Vote, limits.Public, tenantMid.HandlePublic)
	handle(http.MethodGet, "/api/v1/public/:org_slug/changelog/latest",
		deps.PublicHandler.LatestChangelog, tenantMid.HandlePublic)

	// Organization settings
	handle(http.MethodGet, "/api/v1/organizations/current",
		deps.OrgHandler.GetCurrent, authMid.Handle, tenantMid.Handle)
	handle(http.MethodPatch, "/api/v1/organizations/current",
		deps.OrgHandler.Update, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)

	// Webhook subscriptions
	handle(http.MethodGet, "/api/v1/webhooks",
		deps.WebhookHandler.List, authMid.Handle, tenantMid.Handle, admin)
	handle(http.MethodPost, "/api/v1/webhooks",
		deps.WebhookHandler.Create, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)
	handle(http.MethodPatch, "/api/v1/webhooks/:webhook_id",
		deps.WebhookHandler.Update, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)
	handle(http.MethodDelete, "/api/v1/webhooks/:webhook_id",
		deps.WebhookHandler.Delete, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)

	// Posts and comments
	handle(http.MethodGet, "/api/v1/posts",
		deps.PostHandler.List, authMid.Handle, tenantMid.Handle)
	handle(http.MethodPost, "/api/v1/posts",
		deps.PostHandler.Create, authMid.Handle, tenantMid.Handle, limits.APIWrite)
	handle(http.MethodGet, "/api/v1/posts/:post_id",
		deps.PostHandler.Get, authMid.Handle, tenantMid.Handle)
	handle(http.MethodPatch, "/api/v1/posts/:post_id/status",
		deps.PostHandler.UpdateStatus, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)
	handle(http.MethodGet, "/api/v1/posts/:post_id/comments",
		deps.PostHandler.ListComments, authMid.Handle, tenantMid.Handle)
	handle(http.MethodPost, "/api/v1/posts/:post_id/comments",
		deps.PostHandler.AddComment, authMid.Handle, tenantMid.Handle, limits.APIWrite)

	// Changelog
	handle(http.MethodGet, "/api/v1/changelog",
		deps.ChangelogHandler.List, authMid.Handle, tenantMid.Handle)
	handle(http.MethodPost, "/api/v1/changelog",
		deps.ChangelogHandler.Create, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)
	handle(http.MethodPost, "/api/v1/changelog/:entry_id/publish",
		deps.ChangelogHandler.Publish, authMid.Handle, tenantMid.Handle, admin, limits.APIWrite)

	// Integrations
	handle(http.MethodGet, "/api/v1/integrations",
		deps.IntegrationHandler.List, authMid.Handle, tenantMid.Handle)
	handle(http.MethodGet, "/api/v1/integrations/:provider/connect",
		deps.IntegrationHandler.Connect, authMid.Handle, tenantMid.Handle, admin)
	// The provider redirects the browser here; the org comes from state.
	handle(http.MethodGet, "/api/v1/integrations/:provider/callback",
		deps.IntegrationHandler.Callback)

	// Audit
	handle(http.MethodGet, "/api/v1/audit-logs",
		deps.AuditHandler.List, authMid.Handle, tenantMid.Handle, admin)

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...mw) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
