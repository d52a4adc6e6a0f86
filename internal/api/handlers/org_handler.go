package handlers

import (
	"context"
	"net/http"

	"boardly/internal/engine/widgets"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/audit"
	"boardly/internal/platform/models"
)

type orgUpdater interface {
	Update(ctx context.Context, org *models.Organization) error
}

type OrgHandler struct {
	orgRepo orgUpdater
	audit   *audit.Logger
}

func NewOrgHandler(orgRepo orgUpdater, auditLogger *audit.Logger) *OrgHandler {
	return &OrgHandler{orgRepo: orgRepo, audit: auditLogger}
}

type updateOrgRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=100"`
	EmbedOrigins []string `json:"embed_origins" validate:"omitempty,max=50,dive,required"`
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, tenantFrom(r).Org)
}

// Update edits the name and the origins allowed to embed widgets. Sending
// embed_origins replaces the whole list; an empty list allows any origin.
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	org := *tenantFrom(r).Org

	var req updateOrgRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.EmbedOrigins != nil {
		origins := make([]string, 0, len(req.EmbedOrigins))
		for _, raw := range req.EmbedOrigins {
			origin, ok := widgets.NormalizeOrigin(raw)
			if !ok {
				errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid embed origin", map[string]string{"origin": raw})
				return
			}
			origins = append(origins, origin)
		}
		org.EmbedOrigins = dedupe(origins)
	}

	if err := h.orgRepo.Update(r.Context(), &org); err != nil {
		writeRepoError(w, err, "Organization")
		return
	}

	h.audit.Log(r.Context(), "organization.updated", "organization", org.ID, map[string]interface{}{
		"embed_origins": org.EmbedOrigins,
	})
	errors.WriteJSON(w, http.StatusOK, &org)
}
