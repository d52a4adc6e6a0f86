package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"boardly/internal/engine/integrations"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/repositories"
)

type IntegrationHandler struct {
	svc  *integrations.Service
	repo *repositories.IntegrationRepository
}

func NewIntegrationHandler(svc *integrations.Service, repo *repositories.IntegrationRepository) *IntegrationHandler {
	return &IntegrationHandler{svc: svc, repo: repo}
}

func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	list, err := h.repo.ListByOrg(r.Context(), tenant.OrgID)
	if err != nil {
		writeRepoError(w, err, "Integration")
		return
	}
	errors.WriteJSON(w, http.StatusOK, list)
}

// Connect redirects to the provider's consent screen. A provider without a
// client id is reported as unavailable and no redirect happens.
func (h *IntegrationHandler) Connect(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	provider, err := integrations.ParseProvider(param(r, "provider"))
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Unknown integration provider", nil)
		return
	}

	target, err := h.svc.AuthorizeURL(provider, integrations.State{
		OrgID:    tenant.OrgID,
		OrgSlug:  tenant.OrgSlug,
		ReturnTo: r.URL.Query().Get("return_to"),
	})
	if stderrors.Is(err, integrations.ErrNotConfigured) {
		log.Error().Err(err).Str("provider", string(provider)).Str("org_id", tenant.OrgID).Msg("integration connect requested but provider is not configured")
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeUnavailable, "Integration is not configured", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("provider", string(provider)).Msg("failed to build authorize url")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to start integration", nil)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *IntegrationHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, err := integrations.ParseProvider(param(r, "provider"))
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Unknown integration provider", nil)
		return
	}

	q := r.URL.Query()
	if denied := q.Get("error"); denied != "" {
		log.Warn().Str("provider", string(provider)).Str("error", denied).Msg("integration authorization denied")
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Authorization was denied", nil)
		return
	}

	st, err := h.svc.Complete(r.Context(), provider, q.Get("code"), q.Get("state"))
	switch {
	case stderrors.Is(err, integrations.ErrInvalidState):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid state parameter", nil)
		return
	case stderrors.Is(err, integrations.ErrNotConfigured):
		log.Error().Err(err).Str("provider", string(provider)).Msg("integration callback for unconfigured provider")
		errors.WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeUnavailable, "Integration is not configured", nil)
		return
	case err != nil:
		log.Error().Err(err).Str("provider", string(provider)).Str("org_id", st.OrgID).Msg("integration callback failed")
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeInternal, "Failed to complete integration", nil)
		return
	}

	log.Info().Str("provider", string(provider)).Str("org_id", st.OrgID).Msg("integration connected")
	http.Redirect(w, r, st.ReturnTo, http.StatusFound)
}
