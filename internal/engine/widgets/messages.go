package widgets

import (
	"net/url"
	"strings"
)

// Host to iframe commands, sent by the control object.
const (
	MessageOpen  = "open"
	MessageClose = "close"
)

// Iframe to host layout hints from launcher frames. They only resize the
// frame and never change session state.
const (
	MessageExpand   = "boardly:expand"
	MessageCollapse = "boardly:collapse"
)

// Sentinels lists every iframe to host message the loaders react to.
func Sentinels() []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Sentinel)
	}
	return out
}

// NormalizeOrigin reduces raw to scheme://host[:port]. Only http and https
// origins without path, query or credentials are accepted.
func NormalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" || u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", false
	}
	if u.Path != "" && u.Path != "/" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

// OriginPolicy decides which host origins may embed an organization's
// widgets and exchange messages with them. An empty allowlist admits every
// origin.
type OriginPolicy struct {
	restricted bool
	allowed    map[string]struct{}
}

// NewOriginPolicy builds a policy from configured origins. Entries that are
// not valid origins never match but still make the policy restrictive.
func NewOriginPolicy(origins []string) OriginPolicy {
	p := OriginPolicy{
		restricted: len(origins) > 0,
		allowed:    make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		if n, ok := NormalizeOrigin(o); ok {
			p.allowed[n] = struct{}{}
		}
	}
	return p
}

// Unrestricted reports whether no allowlist is configured.
func (p OriginPolicy) Unrestricted() bool { return !p.restricted }

func (p OriginPolicy) Allows(origin string) bool {
	n, ok := NormalizeOrigin(origin)
	if !ok {
		return false
	}
	if p.Unrestricted() {
		return true
	}
	_, ok = p.allowed[n]
	return ok
}
