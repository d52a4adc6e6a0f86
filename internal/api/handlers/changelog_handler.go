package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"boardly/internal/engine/changelog"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/audit"
	"boardly/internal/platform/models"
)

type ChangelogHandler struct {
	svc   *changelog.Service
	audit *audit.Logger
}

func NewChangelogHandler(svc *changelog.Service, auditLogger *audit.Logger) *ChangelogHandler {
	return &ChangelogHandler{svc: svc, audit: auditLogger}
}

type createChangelogRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Body    string `json:"body" validate:"max=20000"`
	Link    string `json:"link" validate:"omitempty,httpurl"`
	Publish bool   `json:"publish"`
}

func (h *ChangelogHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.svc.ListPublished(r.Context(), tenant.OrgID, limit)
	if err != nil {
		writeRepoError(w, err, "Changelog entry")
		return
	}
	errors.WriteJSON(w, http.StatusOK, entries)
}

// Create stores a draft, publishing it right away when asked to.
func (h *ChangelogHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req createChangelogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.svc.Create(r.Context(), &models.ChangelogEntry{
		OrgID: tenant.OrgID,
		Title: req.Title,
		Body:  req.Body,
		Link:  req.Link,
	})
	if err != nil {
		writeRepoError(w, err, "Changelog entry")
		return
	}

	if req.Publish {
		entry, err = h.svc.Publish(r.Context(), tenant.OrgID, entry.ID)
		if err != nil {
			writeRepoError(w, err, "Changelog entry")
			return
		}
	}

	h.audit.Log(r.Context(), "changelog.created", "changelog_entry", entry.ID, map[string]interface{}{"published": entry.Published()})
	errors.WriteJSON(w, http.StatusCreated, entry)
}

func (h *ChangelogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := param(r, "entry_id")

	entry, err := h.svc.Publish(r.Context(), tenant.OrgID, id)
	if stderrors.Is(err, changelog.ErrAlreadyPublished) {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Changelog entry already published", nil)
		return
	}
	if err != nil {
		writeRepoError(w, err, "Changelog entry")
		return
	}

	h.audit.Log(r.Context(), "changelog.published", "changelog_entry", id, nil)
	errors.WriteJSON(w, http.StatusOK, entry)
}
