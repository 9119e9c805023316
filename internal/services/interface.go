package services

import (
	"context"
	"io"

	"drivevault/internal/models"
)

// RevisionStore is the storage provider's native revision API. The provider
// names a new revision after the current file name, so CreateRevision hides
// the rename-around-upload sequence behind this interface; callers never see
// the naming quirk.
type RevisionStore interface {
	// ListRevisions returns a file's revisions in provider order, unsorted.
	ListRevisions(ctx context.Context, fileID string) ([]models.Revision, error)

	// CurrentRevision returns the last revision in provider order.
	CurrentRevision(ctx context.Context, fileID string) (*models.Revision, error)

	// CreateRevision uploads new content as a revision of an existing file.
	CreateRevision(ctx context.Context, req *CreateRevisionRequest) (*models.Revision, error)

	// DeleteRevision removes one binary snapshot. Deleting the sole remaining
	// revision fails with a conflict error.
	DeleteRevision(ctx context.Context, fileID, revisionID string) error

	// SetKeepForever toggles the provider's retention pin on a revision.
	SetKeepForever(ctx context.Context, fileID, revisionID string, keep bool) error

	// PurgeAllButNewest deletes every revision except the most recent,
	// best-effort: individual failures are collected, not fatal.
	PurgeAllButNewest(ctx context.Context, fileID string) (*models.BatchResult, error)

	// ReadRevisionBytes downloads a revision's content and its MIME type.
	ReadRevisionBytes(ctx context.Context, fileID, revisionID string) ([]byte, string, error)
}

// CreateRevisionRequest carries one rename→upload→pin→rename-back sequence.
type CreateRevisionRequest struct {
	FileID      string
	FileName    string // display name to restore after the upload
	UploadName  string // original filename of the new content
	Content     io.Reader
	MimeType    string // MIME type to set on the file
	KeepForever bool
}

// FileStore covers the file-level provider operations the managers need.
type FileStore interface {
	CreateFile(ctx context.Context, req *CreateFileRequest) (*models.File, error)
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	RenameFile(ctx context.Context, fileID, newName string) error
	MoveFile(ctx context.Context, fileID, oldParentID, newParentID string) error
	DeleteFile(ctx context.Context, fileID string, permanent bool) error
	RestoreFile(ctx context.Context, fileID string) error
}

// CreateFileRequest uploads a brand-new file into a folder.
type CreateFileRequest struct {
	FolderID    string
	Name        string
	Content     io.Reader
	MimeType    string
	Description string
}

// BrowseStore covers the read-only listings the dashboard browses with.
type BrowseStore interface {
	ListFiles(ctx context.Context, q *FileQuery) ([]models.File, error)
	ListTrashedFiles(ctx context.Context, driveID string) ([]models.File, error)
	MostRecentFiles(ctx context.Context, driveID, folderID string, maxResults int) ([]models.File, error)
	Subfolders(ctx context.Context, driveID, folderID, searchTerm string, maxDepth int) ([]models.Folder, error)
	FoldersInfo(ctx context.Context, folderIDs []string) ([]models.Folder, error)
	ListSharedDrives(ctx context.Context) ([]models.SharedDrive, error)
}

// FileQuery filters a folder-scoped file listing.
type FileQuery struct {
	DriveID    string
	FolderID   string
	SearchTerm string
	Trashed    bool
}

// MetadataStore is the document database holding human-authored metadata:
// per-revision descriptions and per-(file, revision) comment threads. It
// knows nothing about the storage provider.
type MetadataStore interface {
	// SaveVersionMetadata upserts the description for one revision. Saving the
	// same revision id twice replaces the entry instead of duplicating it.
	SaveVersionMetadata(ctx context.Context, fileID, revisionID, revisionName, description string) error

	// GetVersionMetadata returns the description for a revision, reporting
	// absence separately from errors.
	GetVersionMetadata(ctx context.Context, fileID, revisionID string) (string, bool, error)

	DeleteVersionMetadata(ctx context.Context, fileID, revisionID string) error

	// ListComments returns the stored comments of a (file, revision) pair in
	// insertion order.
	ListComments(ctx context.Context, fileID, revisionID string) ([]models.Comment, error)

	// GetComment locates one comment by id within the (file, revision) scope.
	GetComment(ctx context.Context, fileID, revisionID, commentID string) (*models.Comment, error)

	// CreateComment stores comment, creating the parent file and version
	// documents lazily, and fills in its generated id.
	CreateComment(ctx context.Context, fileID, revisionID, revisionName string, comment *models.Comment) error

	UpdateCommentContent(ctx context.Context, fileID, revisionID, commentID, content string) error
	DeleteComment(ctx context.Context, fileID, revisionID, commentID string) error
	SetCommentResolved(ctx context.Context, fileID, revisionID, commentID string, resolved bool) error

	// CreateReply appends reply to the comment's thread and fills in its
	// generated id. Fails with not-found when the parent comment is absent.
	CreateReply(ctx context.Context, fileID, revisionID, commentID string, reply *models.Reply) error

	// GetReply locates a reply by id alone within the (file, revision) scope.
	GetReply(ctx context.Context, fileID, revisionID, replyID string) (*models.Reply, error)

	// DeleteReply removes a reply by id alone, from whichever comment holds it.
	DeleteReply(ctx context.Context, fileID, revisionID, replyID string) error
}
