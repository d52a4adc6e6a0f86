package handlers

import (
	"net/http"
	"strconv"

	"boardly/internal/pkg/errors"
	"boardly/internal/platform/audit"
)

type AuditHandler struct {
	audit *audit.Logger
}

func NewAuditHandler(auditLogger *audit.Logger) *AuditHandler {
	return &AuditHandler{audit: auditLogger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.audit.List(r.Context(), tenant.OrgID, limit)
	if err != nil {
		writeRepoError(w, err, "Audit log")
		return
	}
	errors.WriteJSON(w, http.StatusOK, logs)
}
