package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"boardly/internal/engine/changelog"
	"boardly/internal/engine/widgets"
	"boardly/internal/pkg/errors"
	"boardly/internal/pkg/validator"
	"boardly/internal/platform/metrics"
	"boardly/internal/platform/models"
	"boardly/internal/platform/repositories"
)

// EmbedHandler serves the widget loader scripts, the embed pages they
// frame, and the state endpoint content-bearing loaders consult first.
type EmbedHandler struct {
	orgs        orgBySlug
	changelog   *changelog.Service
	cacheMaxAge time.Duration
	cors        func(http.Handler) http.Handler
}

func NewEmbedHandler(orgs orgBySlug, changelog *changelog.Service, cacheMaxAge time.Duration) *EmbedHandler {
	h := &EmbedHandler{orgs: orgs, changelog: changelog, cacheMaxAge: cacheMaxAge}
	h.cors = cors.Handler(cors.Options{
		AllowedMethods:  []string{http.MethodGet},
		AllowOriginFunc: h.allowOrigin,
	})
	return h
}

type orgBySlug interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

type embedStateResponse struct {
	State widgets.State          `json:"state"`
	Entry *models.ChangelogEntry `json:"entry"`
}

func (h *EmbedHandler) Loader(kind widgets.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		js, err := widgets.Loader(kind)
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("failed to render widget loader")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to render loader", nil)
			return
		}

		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = w.Write(js)
	}
}

// Page renders the iframe document. The parent origin named by the loader
// must be allowed by the organization's embed origins.
func (h *EmbedHandler) Page(kind widgets.Kind) http.HandlerFunc {
	spec, _ := widgets.Lookup(kind)

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		org, ok := h.loadOrg(w, r, q.Get("org"))
		if !ok {
			return
		}

		parent, ok := widgets.NormalizeOrigin(q.Get("parent"))
		if !ok {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing or invalid parent origin", nil)
			return
		}

		policy := widgets.NewOriginPolicy(org.EmbedOrigins)
		if policy.Unrestricted() {
			log.Warn().Str("org_slug", org.Slug).Str("kind", string(kind)).Str("parent", parent).
				Msg("organization has no embed origins configured, allowing any parent")
		}
		if !policy.Allows(parent) {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Embedding from this origin is not allowed", nil)
			return
		}

		page := widgets.Page{
			Kind:         kind,
			Org:          org.Slug,
			OrgName:      org.Name,
			ParentOrigin: parent,
			Sentinel:     spec.Sentinel,
			Target:       q.Get("target"),
		}

		switch kind {
		case widgets.KindChangelogPopup, widgets.KindAnnouncementBar:
			entry, err := h.changelog.Latest(r.Context(), org.ID)
			if err != nil {
				writeRepoError(w, err, "Changelog entry")
				return
			}
			page.Entry = entry
		case widgets.KindChangelogDropdown:
			entries, err := h.changelog.ListPublished(r.Context(), org.ID, 10)
			if err != nil {
				writeRepoError(w, err, "Changelog entry")
				return
			}
			page.Entries = entries
			if len(entries) > 0 {
				page.Entry = entries[0]
			}
		}

		if kind == widgets.KindAnnouncementBar {
			if link := q.Get("link"); validator.IsHTTPURL(link) {
				page.Link = link
			} else if page.Entry != nil {
				page.Link = page.Entry.Link
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", "frame-ancestors "+parent)
		w.Header().Set("Cache-Control", "no-store")
		if err := widgets.RenderPage(w, page); err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("failed to render embed page")
		}
	}
}

// State runs one bootstrap for kind against the organization's latest
// entry and the id the host page last dismissed.
func (h *EmbedHandler) State(kind widgets.Kind) http.HandlerFunc {
	spec, _ := widgets.Lookup(kind)

	return h.cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		org, ok := h.loadOrg(w, r, q.Get("org"))
		if !ok {
			return
		}

		var entry *models.ChangelogEntry
		if spec.ContentBearing {
			latest, err := h.changelog.Latest(r.Context(), org.ID)
			if err != nil {
				writeRepoError(w, err, "Changelog entry")
				return
			}
			entry = latest
		}

		session, err := widgets.NewSession(kind, "", widgets.StaticDismissal(q.Get("dismissed")))
		if err != nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Unknown widget", nil)
			return
		}

		var content *widgets.Content
		if entry != nil {
			content = &widgets.Content{ID: entry.ID}
		}
		if err := session.Bootstrap(widgets.Attrs{"org": org.Slug}, content); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}

		state := session.State()
		metrics.EmbedBootstraps.WithLabelValues(string(kind), string(state)).Inc()

		resp := embedStateResponse{State: state}
		if state == widgets.StateVisible {
			resp.Entry = entry
		}
		w.Header().Set("Cache-Control", "no-store")
		errors.WriteJSON(w, http.StatusOK, resp)
	})).ServeHTTP
}

func (h *EmbedHandler) loadOrg(w http.ResponseWriter, r *http.Request, slug string) (*models.Organization, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing org parameter", nil)
		return nil, false
	}

	org, err := h.orgs.GetBySlug(r.Context(), slug)
	if stderrors.Is(err, repositories.ErrNotFound) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return nil, false
	}
	if err != nil {
		writeRepoError(w, err, "Organization")
		return nil, false
	}
	return org, true
}

// allowOrigin lets host pages on the organization's embed origins read the
// state response.
func (h *EmbedHandler) allowOrigin(r *http.Request, origin string) bool {
	slug := strings.TrimSpace(r.URL.Query().Get("org"))
	if slug == "" {
		return false
	}
	org, err := h.orgs.GetBySlug(r.Context(), slug)
	if err != nil {
		return false
	}
	return widgets.NewOriginPolicy(org.EmbedOrigins).Allows(origin)
}
