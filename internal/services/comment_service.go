// ===============================
// FILE: internal/services/comment_service.go
// ===============================

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"drivevault/internal/models"
)

// CommentService manages the discussion threads attached to (file, version)
// pairs. Authorship is enforced server-side: only the author may edit or
// delete a comment or reply; resolving is open to any user.
type CommentService struct {
	metadata MetadataStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewCommentService creates a comment thread service.
func NewCommentService(metadata MetadataStore, logger *zap.Logger) *CommentService {
	return &CommentService{
		metadata: metadata,
		logger:   logger,
		now:      time.Now,
	}
}

// ListComments returns the comments of a version in insertion order.
func (s *CommentService) ListComments(ctx context.Context, fileID, revisionID string) ([]models.Comment, error) {
	return s.metadata.ListComments(ctx, fileID, revisionID)
}

// PostComment creates a top-level comment, timestamped at call time, and
// returns the stored record so callers can append it without a re-fetch.
func (s *CommentService) PostComment(ctx context.Context, req *PostCommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("comment content must not be empty", nil)
	}

	comment := &models.Comment{
		User:      req.User,
		Timestamp: models.CommentTimestamp(s.now()),
		Content:   req.Content,
		Resolved:  false,
		Replies:   []models.Reply{},
	}
	if err := s.metadata.CreateComment(ctx, req.FileID, req.RevisionID, req.RevisionName, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment posted",
		zap.String("file_id", req.FileID),
		zap.String("revision_id", req.RevisionID),
		zap.String("comment_id", comment.ID),
		zap.String("user", req.User),
	)
	return comment, nil
}

// EditComment replaces a comment's content on behalf of the acting user.
// Editing someone else's comment fails; submitting the current content
// unchanged is a no-op.
func (s *CommentService) EditComment(ctx context.Context, req *EditCommentRequest) (*OperationResult, error) {
	comment, err := s.metadata.GetComment(ctx, req.FileID, req.RevisionID, req.CommentID)
	if err != nil {
		return resultFailed("Comment not found."), err
	}
	if comment.User != req.ActingUser {
		err := NewConflictError("you can only edit your own comments")
		return resultFailed(err.Message), err
	}
	if comment.Content == req.Content {
		return resultOK("Comment unchanged."), nil
	}

	if err := s.metadata.UpdateCommentContent(ctx, req.FileID, req.RevisionID, req.CommentID, req.Content); err != nil {
		return resultFailed(fmt.Sprintf("Failed to update comment: %v", err)), err
	}
	return resultOK("Comment updated successfully."), nil
}

// DeleteComment removes a comment and its replies on behalf of the acting
// user; only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, fileID, revisionID, commentID, actingUser string) (*OperationResult, error) {
	comment, err := s.metadata.GetComment(ctx, fileID, revisionID, commentID)
	if err != nil {
		return resultFailed("Comment not found."), err
	}
	if comment.User != actingUser {
		err := NewConflictError("you can only delete your own comments")
		return resultFailed(err.Message), err
	}

	if err := s.metadata.DeleteComment(ctx, fileID, revisionID, commentID); err != nil {
		return resultFailed(fmt.Sprintf("Failed to delete comment: %v", err)), err
	}
	return resultOK("Comment deleted successfully."), nil
}

// SetResolved toggles a comment's resolved flag. Any user may resolve or
// reopen; setting the current value again is harmless.
func (s *CommentService) SetResolved(ctx context.Context, fileID, revisionID, commentID string, resolved bool) (*OperationResult, error) {
	if err := s.metadata.SetCommentResolved(ctx, fileID, revisionID, commentID, resolved); err != nil {
		return resultFailed(fmt.Sprintf("Failed to update comment status: %v", err)), err
	}
	if resolved {
		return resultOK("Comment marked as resolved."), nil
	}
	return resultOK("Comment marked as unresolved."), nil
}

// PostReply appends a reply to an existing comment and returns the stored
// record. A missing parent comment fails with not-found and writes nothing.
func (s *CommentService) PostReply(ctx context.Context, req *PostReplyRequest) (*models.Reply, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("reply content must not be empty", nil)
	}

	reply := &models.Reply{
		User:      req.User,
		Timestamp: models.CommentTimestamp(s.now()),
		Content:   req.Content,
	}
	if err := s.metadata.CreateReply(ctx, req.FileID, req.RevisionID, req.CommentID, reply); err != nil {
		return nil, err
	}

	s.logger.Info("reply posted",
		zap.String("file_id", req.FileID),
		zap.String("revision_id", req.RevisionID),
		zap.String("comment_id", req.CommentID),
		zap.String("user", req.User),
	)
	return reply, nil
}

// DeleteReply removes a reply, located by id alone within the version scope,
// on behalf of the acting user; only the author may delete. The parent
// comment is untouched.
func (s *CommentService) DeleteReply(ctx context.Context, fileID, revisionID, replyID, actingUser string) (*OperationResult, error) {
	reply, err := s.metadata.GetReply(ctx, fileID, revisionID, replyID)
	if err != nil {
		return resultFailed("Reply not found."), err
	}
	if reply.User != actingUser {
		err := NewConflictError("you can only delete your own replies")
		return resultFailed(err.Message), err
	}

	if err := s.metadata.DeleteReply(ctx, fileID, revisionID, replyID); err != nil {
		return resultFailed(fmt.Sprintf("Failed to delete reply: %v", err)), err
	}
	return resultOK("Reply deleted successfully."), nil
}

// FilterComments narrows comments with three AND-ed predicates: resolved
// status, exact author name, and a case-insensitive substring match on the
// content. Empty or "all" values pass everything through on that axis.
// Replies are never matched, and the relative order of survivors is kept.
func FilterComments(comments []models.Comment, criteria models.FilterCriteria) []models.Comment {
	filtered := make([]models.Comment, 0, len(comments))

	var searchText string
	if criteria.SearchText != "" {
		searchText = strings.ToLower(criteria.SearchText)
	}

	for _, comment := range comments {
		if criteria.Status != "" && criteria.Status != models.StatusAll {
			wantResolved := criteria.Status == models.StatusResolved
			if comment.Resolved != wantResolved {
				continue
			}
		}
		if criteria.UserFilter != "" && criteria.UserFilter != models.StatusAll {
			if comment.User != criteria.UserFilter {
				continue
			}
		}
		if searchText != "" && !strings.Contains(strings.ToLower(comment.Content), searchText) {
			continue
		}
		filtered = append(filtered, comment)
	}
	return filtered
}

// SortCommentsByTimestamp orders comments newest first. The stored timestamp
// format sorts chronologically as a plain string.
func SortCommentsByTimestamp(comments []models.Comment) []models.Comment {
	sorted := make([]models.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	return sorted
}
