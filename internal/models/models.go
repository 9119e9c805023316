package models

import "time"

// File is the storage provider's view of a managed asset. Identity and
// timestamps come from the provider; FolderID/FolderName are resolved from
// the first parent when listing.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type,omitempty"`
	FolderID     string `json:"folder_id,omitempty"`
	FolderName   string `json:"folder_name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	CreatedTime  string `json:"created_time,omitempty"`
	ModifiedTime string `json:"modified_time,omitempty"`
	Trashed      bool   `json:"trashed,omitempty"`
	Description  string `json:"description,omitempty"`
	WebViewLink  string `json:"web_view_link,omitempty"`
}

// Revision is an immutable binary snapshot of a file, as tracked natively by
// the storage provider. ModifiedTime is the provider's RFC 3339 string; it is
// kept verbatim and only parsed when ordering versions for display.
type Revision struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type,omitempty"`
	Size             int64  `json:"size,omitempty"`
	ModifiedTime     string `json:"modified_time,omitempty"`
	KeepForever      bool   `json:"keep_forever"`
}

// DisplayVersion decorates a Revision with the metadata-store description and
// the derived version number. VersionNumber is a projection recomputed on
// every listing, never persisted.
type DisplayVersion struct {
	Revision
	DisplayName   string `json:"display_name"`
	Description   string `json:"description"`
	VersionNumber int    `json:"version_number"`
}

// Comment is a top-level discussion item scoped to one (file, revision) pair.
type Comment struct {
	ID        string  `json:"id" bson:"id"`
	User      string  `json:"user" bson:"user"`
	Timestamp string  `json:"timestamp" bson:"timestamp"`
	Content   string  `json:"content" bson:"content"`
	Resolved  bool    `json:"resolved" bson:"resolved"`
	Replies   []Reply `json:"replies" bson:"replies"`
}

// Reply belongs to exactly one Comment and carries no resolution state of
// its own.
type Reply struct {
	ID        string `json:"id" bson:"id"`
	User      string `json:"user" bson:"user"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
	Content   string `json:"content" bson:"content"`
}

// FilterCriteria narrows an already-fetched comment list. Zero values and
// "all" pass everything through on that axis.
type FilterCriteria struct {
	Status     string `json:"status"`      // "all", "resolved", "unresolved"
	UserFilter string `json:"user_filter"` // "all" or an exact user name
	SearchText string `json:"search_text"` // case-insensitive substring on content
}

const (
	StatusAll        = "all"
	StatusResolved   = "resolved"
	StatusUnresolved = "unresolved"
)

// BatchFailure records one failed item of a best-effort batch operation.
type BatchFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// BatchResult carries the fail-open outcome of a batch or purge: individual
// failures never abort the remaining items.
type BatchResult struct {
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// AddFailure records a failed item.
func (r *BatchResult) AddFailure(item string, err error) {
	r.Failures = append(r.Failures, BatchFailure{Item: item, Error: err.Error()})
}

// AllSucceeded reports whether every attempted item succeeded.
func (r *BatchResult) AllSucceeded() bool {
	return r.Attempted == r.Succeeded
}

// Folder is a minimal folder descriptor used by browse listings. Depth is
// 1-based from the listing root when fetched hierarchically.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Depth int    `json:"depth,omitempty"`
}

// SharedDrive identifies one shared drive available to the session.
type SharedDrive struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommentTimestamp renders t the way comment and reply timestamps are stored:
// wall clock, second precision.
func CommentTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
