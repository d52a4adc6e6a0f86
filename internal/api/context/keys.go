package context

import "boardly/internal/platform/models"

type Key string

const (
	Claims  Key = "claims"
	Tenant  Key = "tenant"
	Params  Key = "params"
	Request Key = "request"
)

// TenantContext is the organization an authenticated request acts on.
type TenantContext struct {
	OrgID   string
	OrgSlug string
	Org     *models.Organization
}

// RequestInfo carries caller details for audit records.
type RequestInfo struct {
	IP        string
	UserAgent string
}
