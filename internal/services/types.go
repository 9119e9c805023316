package services

import (
	"io"

	"drivevault/internal/models"
)

// OperationResult is the UI-facing outcome of a lifecycle operation: a
// success flag plus a human-readable message. Internal callers branch on the
// typed error instead.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func resultOK(message string) *OperationResult {
	return &OperationResult{Success: true, Message: message}
}

func resultFailed(message string) *OperationResult {
	return &OperationResult{Success: false, Message: message}
}

// UploadFileRequest creates a new file plus its first version's metadata.
type UploadFileRequest struct {
	FolderID    string
	FolderName  string
	FileName    string
	Content     io.Reader
	MimeType    string
	Description string
}

// UploadVersionRequest uploads new content as the next version of a file.
type UploadVersionRequest struct {
	File           models.File
	Content        io.Reader
	UploadName     string
	UploadMimeType string
	Description    string
	KeepForever    bool
	// ChangeMimeType switches the file's MIME type to the upload's; otherwise
	// the current type is preserved.
	ChangeMimeType bool
	// KeepOnlyLatest purges all older versions after the upload, best-effort.
	KeepOnlyLatest bool
}

// RevertRequest re-uploads an old version's bytes as a new current version.
type RevertRequest struct {
	File         models.File
	TargetID     string
	TargetName   string
	TargetNumber int
	Description  string
}

// DownloadResult is the outcome of DownloadVersions: raw bytes for a single
// revision, a zip archive for several.
type DownloadResult struct {
	FileName string
	MimeType string
	Content  []byte
}

// PostCommentRequest creates a top-level comment on a (file, version) pair.
type PostCommentRequest struct {
	FileID       string
	RevisionID   string
	RevisionName string
	User         string
	Content      string
}

// EditCommentRequest updates a comment's content on behalf of ActingUser.
type EditCommentRequest struct {
	FileID     string
	RevisionID string
	CommentID  string
	ActingUser string
	Content    string
}

// PostReplyRequest appends a reply to an existing comment.
type PostReplyRequest struct {
	FileID     string
	RevisionID string
	CommentID  string
	User       string
	Content    string
}

// MoveFileItem is one item of a batch move.
type MoveFileItem struct {
	FileID      string
	OldFolderID string
	NewFolderID string
}
