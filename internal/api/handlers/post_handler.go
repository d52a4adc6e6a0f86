package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"boardly/internal/engine/feedback"
	"boardly/internal/pkg/errors"
	"boardly/internal/platform/audit"
	"boardly/internal/platform/models"
)

type PostHandler struct {
	svc   *feedback.Service
	audit *audit.Logger
}

func NewPostHandler(svc *feedback.Service, auditLogger *audit.Logger) *PostHandler {
	return &PostHandler{svc: svc, audit: auditLogger}
}

type createPostRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,poststatus"`
}

type createCommentRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !isPostStatus(status) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown status filter", nil)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	posts, err := h.svc.ListPosts(r.Context(), tenant.OrgID, status, limit, offset)
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	claims := claimsFrom(r)

	var req createPostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.svc.CreatePost(r.Context(), &models.Post{
		OrgID:       tenant.OrgID,
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    claims.UserID,
		AuthorEmail: claims.Email,
	})
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	post, err := h.svc.GetPost(r.Context(), tenant.OrgID, param(r, "post_id"))
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := param(r, "post_id")

	var req updateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.svc.ChangeStatus(r.Context(), tenant.OrgID, id, req.Status)
	if stderrors.Is(err, feedback.ErrInvalidStatus) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}

	h.audit.Log(r.Context(), "post.status_changed", "post", id, map[string]interface{}{"status": post.Status})
	errors.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	comments, err := h.svc.ListComments(r.Context(), tenant.OrgID, param(r, "post_id"))
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusOK, comments)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	claims := claimsFrom(r)

	var req createCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.svc.AddComment(r.Context(), &models.Comment{
		OrgID:    tenant.OrgID,
		PostID:   param(r, "post_id"),
		AuthorID: claims.UserID,
		Body:     req.Body,
	})
	if err != nil {
		writeRepoError(w, err, "Post")
		return
	}
	errors.WriteJSON(w, http.StatusCreated, comment)
}

func isPostStatus(s string) bool {
	for _, status := range models.PostStatuses {
		if status == s {
			return true
		}
	}
	return false
}
