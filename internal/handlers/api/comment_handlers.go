// ===============================
// FILE: internal/handlers/api/comment_handlers.go
// ===============================

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"drivevault/internal/models"
	"drivevault/internal/response"
	"drivevault/internal/services"
)

// CommentController handles the comment thread API endpoints. The acting
// user comes from the X-User header; ownership checks live in the service.
type CommentController struct {
	comments *services.CommentService
	logger   *zap.Logger
	builder  *response.Builder
}

// NewCommentController creates a comment thread controller.
func NewCommentController(comments *services.CommentService, logger *zap.Logger, builder *response.Builder) *CommentController {
	return &CommentController{comments: comments, logger: logger, builder: builder}
}

// ListComments handles GET /api/v1/files/{fileID}/versions/{revisionID}/comments.
// Query: status (all|resolved|unresolved), user, search, sort (newest).
func (c *CommentController) ListComments(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	revisionID := chi.URLParam(r, "revisionID")

	comments, err := c.comments.ListComments(r.Context(), fileID, revisionID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	query := r.URL.Query()
	criteria := models.FilterCriteria{
		Status:     query.Get("status"),
		UserFilter: query.Get("user"),
		SearchText: query.Get("search"),
	}
	comments = services.FilterComments(comments, criteria)
	if query.Get("sort") == "newest" {
		comments = services.SortCommentsByTimestamp(comments)
	}
	c.builder.WriteSuccess(w, r, comments)
}

type postCommentRequest struct {
	RevisionName string `json:"revision_name"`
	Content      string `json:"content" validate:"required"`
}

// PostComment handles POST /api/v1/files/{fileID}/versions/{revisionID}/comments.
func (c *CommentController) PostComment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(c.builder, w, r)
	if !ok {
		return
	}
	var req postCommentRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}

	comment, err := c.comments.PostComment(r.Context(), &services.PostCommentRequest{
		FileID:       chi.URLParam(r, "fileID"),
		RevisionID:   chi.URLParam(r, "revisionID"),
		RevisionName: req.RevisionName,
		User:         user,
		Content:      req.Content,
	})
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteCreated(w, r, comment)
}

type editCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// EditComment handles PUT /api/v1/files/{fileID}/versions/{revisionID}/comments/{commentID}.
func (c *CommentController) EditComment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(c.builder, w, r)
	if !ok {
		return
	}
	var req editCommentRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}

	result, err := c.comments.EditComment(r.Context(), &services.EditCommentRequest{
		FileID:     chi.URLParam(r, "fileID"),
		RevisionID: chi.URLParam(r, "revisionID"),
		CommentID:  chi.URLParam(r, "commentID"),
		ActingUser: user,
		Content:    req.Content,
	})
	c.builder.WriteResult(w, r, result, nil, err)
}

// DeleteComment handles DELETE /api/v1/files/{fileID}/versions/{revisionID}/comments/{commentID}.
func (c *CommentController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(c.builder, w, r)
	if !ok {
		return
	}
	result, err := c.comments.DeleteComment(r.Context(),
		chi.URLParam(r, "fileID"),
		chi.URLParam(r, "revisionID"),
		chi.URLParam(r, "commentID"),
		user,
	)
	c.builder.WriteResult(w, r, result, nil, err)
}

type setResolvedRequest struct {
	Resolved bool `json:"resolved"`
}

// SetResolved handles PUT /api/v1/files/{fileID}/versions/{revisionID}/comments/{commentID}/resolved.
func (c *CommentController) SetResolved(w http.ResponseWriter, r *http.Request) {
	var req setResolvedRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, err := c.comments.SetResolved(r.Context(),
		chi.URLParam(r, "fileID"),
		chi.URLParam(r, "revisionID"),
		chi.URLParam(r, "commentID"),
		req.Resolved,
	)
	c.builder.WriteResult(w, r, result, nil, err)
}

type postReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// PostReply handles POST /api/v1/files/{fileID}/versions/{revisionID}/comments/{commentID}/replies.
func (c *CommentController) PostReply(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(c.builder, w, r)
	if !ok {
		return
	}
	var req postReplyRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}

	reply, err := c.comments.PostReply(r.Context(), &services.PostReplyRequest{
		FileID:     chi.URLParam(r, "fileID"),
		RevisionID: chi.URLParam(r, "revisionID"),
		CommentID:  chi.URLParam(r, "commentID"),
		User:       user,
		Content:    req.Content,
	})
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteCreated(w, r, reply)
}

// DeleteReply handles DELETE /api/v1/files/{fileID}/versions/{revisionID}/replies/{replyID}.
func (c *CommentController) DeleteReply(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(c.builder, w, r)
	if !ok {
		return
	}
	result, err := c.comments.DeleteReply(r.Context(),
		chi.URLParam(r, "fileID"),
		chi.URLParam(r, "revisionID"),
		chi.URLParam(r, "replyID"),
		user,
	)
	c.builder.WriteResult(w, r, result, nil, err)
}
