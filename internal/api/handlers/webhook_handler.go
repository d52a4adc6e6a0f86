package handlers

import (
	"net/http"

	"boardly/internal/pkg/errors"
	"boardly/internal/platform/audit"
	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

type WebhookHandler struct {
	repo  *repositories.WebhookRepository
	audit *audit.Logger
}

func NewWebhookHandler(repo *repositories.WebhookRepository, auditLogger *audit.Logger) *WebhookHandler {
	return &WebhookHandler{repo: repo, audit: auditLogger}
}

// webhookResponse never exposes the secret, only whether one is set.
type webhookResponse struct {
	*models.Subscription
	Signed bool `json:"signed"`
}

func toWebhookResponse(sub *models.Subscription) webhookResponse {
	return webhookResponse{Subscription: sub, Signed: sub.Signed()}
}

type createWebhookRequest struct {
	URL    string   `json:"url" validate:"required,max=2048,httpurl"`
	Events []string `json:"events" validate:"required,min=1,dive,event"`
	Secret *string  `json:"secret" validate:"omitempty,max=256"`
}

type updateWebhookRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	subs, err := h.repo.ListByOrg(r.Context(), tenant.OrgID)
	if err != nil {
		writeRepoError(w, err, "Webhook")
		return
	}

	out := make([]webhookResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toWebhookResponse(sub))
	}
	errors.WriteJSON(w, http.StatusOK, out)
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req createWebhookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sub := &models.Subscription{
		OrgID:  tenant.OrgID,
		URL:    req.URL,
		Events: dedupe(req.Events),
	}
	if req.Secret != nil && *req.Secret != "" {
		sub.Secret = req.Secret
	}

	if err := h.repo.Create(r.Context(), sub); err != nil {
		writeRepoError(w, err, "Webhook")
		return
	}

	h.audit.Log(r.Context(), "webhook.created", "webhook", sub.ID, map[string]interface{}{
		"url":    sub.URL,
		"events": sub.Events,
	})
	errors.WriteJSON(w, http.StatusCreated, toWebhookResponse(sub))
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := param(r, "webhook_id")

	var req updateWebhookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.repo.SetActive(r.Context(), tenant.OrgID, id, *req.IsActive); err != nil {
		writeRepoError(w, err, "Webhook")
		return
	}

	sub, err := h.repo.GetByID(r.Context(), tenant.OrgID, id)
	if err != nil {
		writeRepoError(w, err, "Webhook")
		return
	}

	h.audit.Log(r.Context(), "webhook.updated", "webhook", id, map[string]interface{}{"is_active": sub.IsActive})
	errors.WriteJSON(w, http.StatusOK, toWebhookResponse(sub))
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := param(r, "webhook_id")

	if err := h.repo.Delete(r.Context(), tenant.OrgID, id); err != nil {
		writeRepoError(w, err, "Webhook")
		return
	}

	h.audit.Log(r.Context(), "webhook.deleted", "webhook", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
