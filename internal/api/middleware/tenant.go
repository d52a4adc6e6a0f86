package middleware

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "boardly/internal/api/context"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/auth"
	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

// OrganizationLookup is satisfied by the repository and its slug cache.
type OrganizationLookup interface {
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

type TenantMiddleware struct {
	orgRepo OrganizationLookup
}

func NewTenantMiddleware(orgRepo OrganizationLookup) *TenantMiddleware {
	return &TenantMiddleware{orgRepo: orgRepo}
}

// Handle resolves the organization named in the caller's token.
func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		org, err := m.orgRepo.GetByID(r.Context(), claims.OrganizationID)
		if stderrors.Is(err, repositories.ErrNotFound) {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("org_id", claims.OrganizationID).Msg("failed to load organization")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &apiContext.TenantContext{
			OrgID:   org.ID,
			OrgSlug: org.Slug,
			Org:     org,
		})
		next(w, r.WithContext(ctx))
	}
}

// HandlePublic resolves the organization from the :org_slug route param
// for unauthenticated widget routes.
func (m *TenantMiddleware) HandlePublic(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
		slug := ps.ByName("org_slug")
		if slug == "" {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
			return
		}

		org, err := m.orgRepo.GetBySlug(r.Context(), slug)
		if stderrors.Is(err, repositories.ErrNotFound) {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("org_slug", slug).Msg("failed to load organization")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &apiContext.TenantContext{
			OrgID:   org.ID,
			OrgSlug: org.Slug,
			Org:     org,
		})
		next(w, r.WithContext(ctx))
	}
}
