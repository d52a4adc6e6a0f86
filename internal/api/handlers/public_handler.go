package handlers

import (
	"net/http"
	"strconv"

	"boardly/internal/engine/changelog"
	"boardly/internal/engine/feedback"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/models"
)

// PublicHandler serves the unauthenticated widget routes under
// /api/v1/public/:org_slug.
type PublicHandler struct {
	posts     *feedback.Service
	changelog *changelog.Service
}

func NewPublicHandler(posts *feedback.Service, changelog *changelog.Service) *PublicHandler {
	return &PublicHandler{posts: posts, changelog: changelog}
}

type publicPostRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	AuthorEmail string `json:"author_email" validate:"omitempty,email,max=320"`
}

type publicVoteRequest struct {
	VoterID string `json:"voter_id" validate:"required,max=128"`
}

func (h *PublicHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.posts.ListPosts(r.Context(), tenant.OrgID, "", limit, 0)
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusOK, posts)
}

func (h *PublicHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req publicPostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.posts.CreatePost(r.Context(), &models.Post{
		OrgID:       tenant.OrgID,
		Title:       req.Title,
		Description: req.Description,
		AuthorEmail: req.AuthorEmail,
	})
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, post)
}

// Vote is idempotent per voter: a repeat vote answers 200 instead of 201.
func (h *PublicHandler) Vote(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req publicVoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, created, err := h.posts.Vote(r.Context(), tenant.OrgID, param(r, "post_id"), req.VoterID)
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	errors.WriteJSON(w, status, post)
}

func (h *PublicHandler) LatestChangelog(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	entry, err := h.changelog.Latest(r.Context(), tenant.OrgID)
	if err != nil {
		writeRepoError(w, err, "Changelog entry")
		return
	}
	if entry == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "No published changelog entries", nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, entry)
}
