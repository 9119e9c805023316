// file: internal/services/comment_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"drivevault/internal/models"
)

func newTestCommentService(t *testing.T) (*CommentService, *fakeMetadataStore) {
	t.Helper()
	metadata := newFakeMetadataStore()
	svc := NewCommentService(metadata, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	}
	return svc, metadata
}

func postTestComment(t *testing.T, svc *CommentService, user, content string) *models.Comment {
	t.Helper()
	comment, err := svc.PostComment(context.Background(), &PostCommentRequest{
		FileID:       "file-1",
		RevisionID:   "rev-1",
		RevisionName: "draft.txt",
		User:         user,
		Content:      content,
	})
	require.NoError(t, err)
	return comment
}

func TestPostCommentReturnsStoredRecord(t *testing.T) {
	svc, _ := newTestCommentService(t)

	comment := postTestComment(t, svc, "alice", "looks good")
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "alice", comment.User)
	assert.Equal(t, "2025-06-01 12:30:45", comment.Timestamp)
	assert.False(t, comment.Resolved)
	assert.NotNil(t, comment.Replies)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
}

func TestPostCommentEmptyContentRejected(t *testing.T) {
	svc, _ := newTestCommentService(t)

	_, err := svc.PostComment(context.Background(), &PostCommentRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		User:       "alice",
		Content:    "   ",
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TypeValidation))
}

func TestEditCommentOnlyByAuthor(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "original")

	result, err := svc.EditComment(context.Background(), &EditCommentRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		ActingUser: "bob",
		Content:    "hijacked",
	})
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
	assert.False(t, result.Success)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "original", comments[0].Content)
}

func TestEditCommentUnchangedIsNoop(t *testing.T) {
	svc, metadata := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "same text")

	result, err := svc.EditComment(context.Background(), &EditCommentRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		ActingUser: "alice",
		Content:    "same text",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, metadata.updateCalls)
}

func TestEditCommentUpdatesContent(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "tpyo")

	result, err := svc.EditComment(context.Background(), &EditCommentRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		ActingUser: "alice",
		Content:    "typo",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "typo", comments[0].Content)
}

func TestDeleteCommentOnlyByAuthor(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "mine")

	_, err := svc.DeleteComment(context.Background(), "file-1", "rev-1", comment.ID, "bob")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	result, err := svc.DeleteComment(context.Background(), "file-1", "rev-1", comment.ID, "alice")
	require.NoError(t, err)
	assert.True(t, result.Success)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSetResolvedAnyUserAndIdempotent(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "open issue")

	// Resolving someone else's comment is allowed.
	result, err := svc.SetResolved(context.Background(), "file-1", "rev-1", comment.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Comment marked as resolved.", result.Message)

	// A second resolve changes nothing.
	_, err = svc.SetResolved(context.Background(), "file-1", "rev-1", comment.ID, true)
	require.NoError(t, err)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	assert.True(t, comments[0].Resolved)
}

func TestPostReplyMissingCommentNotFound(t *testing.T) {
	svc, _ := newTestCommentService(t)

	_, err := svc.PostReply(context.Background(), &PostReplyRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  "no-such-comment",
		User:       "bob",
		Content:    "reply into the void",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestDeleteReplyPreservesParent(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "parent")

	first, err := svc.PostReply(context.Background(), &PostReplyRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		User:       "bob",
		Content:    "first reply",
	})
	require.NoError(t, err)
	_, err = svc.PostReply(context.Background(), &PostReplyRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		User:       "bob",
		Content:    "second reply",
	})
	require.NoError(t, err)

	// The reply is located by id alone, no parent comment id needed.
	result, err := svc.DeleteReply(context.Background(), "file-1", "rev-1", first.ID, "bob")
	require.NoError(t, err)
	assert.True(t, result.Success)

	comments, err := svc.ListComments(context.Background(), "file-1", "rev-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "second reply", comments[0].Replies[0].Content)
}

func TestDeleteReplyOnlyByAuthor(t *testing.T) {
	svc, _ := newTestCommentService(t)
	comment := postTestComment(t, svc, "alice", "parent")
	reply, err := svc.PostReply(context.Background(), &PostReplyRequest{
		FileID:     "file-1",
		RevisionID: "rev-1",
		CommentID:  comment.ID,
		User:       "bob",
		Content:    "bob's reply",
	})
	require.NoError(t, err)

	_, err = svc.DeleteReply(context.Background(), "file-1", "rev-1", reply.ID, "alice")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestFilterCommentsPredicates(t *testing.T) {
	comments := []models.Comment{
		{ID: "1", User: "alice", Content: "Fix the HEADER layout", Resolved: false},
		{ID: "2", User: "bob", Content: "looks fine to me", Resolved: true},
		{ID: "3", User: "alice", Content: "header color is off", Resolved: true,
			Replies: []models.Reply{{User: "bob", Content: "unrelated text"}}},
		{ID: "4", User: "carol", Content: "ship it", Resolved: false},
	}

	// Status only.
	got := FilterComments(comments, models.FilterCriteria{Status: models.StatusResolved})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	// Case-insensitive substring on content, order preserved.
	got = FilterComments(comments, models.FilterCriteria{SearchText: "header"})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	// All three predicates AND together.
	got = FilterComments(comments, models.FilterCriteria{
		Status:     models.StatusResolved,
		UserFilter: "alice",
		SearchText: "header",
	})
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	// Replies are never matched.
	got = FilterComments(comments, models.FilterCriteria{SearchText: "unrelated"})
	assert.Empty(t, got)

	// Pass-through values filter nothing.
	got = FilterComments(comments, models.FilterCriteria{Status: models.StatusAll, UserFilter: "all"})
	assert.Len(t, got, 4)
}

func TestSortCommentsByTimestampNewestFirst(t *testing.T) {
	comments := []models.Comment{
		{ID: "old", Timestamp: "2025-06-01 10:00:00"},
		{ID: "new", Timestamp: "2025-06-01 12:00:00"},
		{ID: "mid", Timestamp: "2025-06-01 11:00:00"},
	}

	sorted := SortCommentsByTimestamp(comments)
	require.Len(t, sorted, 3)
	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)

	// Input order is untouched.
	assert.Equal(t, "old", comments[0].ID)
}
