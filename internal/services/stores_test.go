// file: internal/services/stores_test.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"drivevault/internal/models"
)

// fakeRevisionStore is an in-memory RevisionStore. Revisions are kept in
// creation order, the way the provider reports them.
type fakeRevisionStore struct {
	revisions map[string][]models.Revision
	content   map[string][]byte
	mimeTypes map[string]string
	nextID    int
	clock     time.Time

	createErr    error
	deleteErr    map[string]error
	readErr      error
	keepErr      error
	renamedNames []string
}

func newFakeRevisionStore() *fakeRevisionStore {
	return &fakeRevisionStore{
		revisions: make(map[string][]models.Revision),
		content:   make(map[string][]byte),
		mimeTypes: make(map[string]string),
		deleteErr: make(map[string]error),
		clock:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRevisionStore) addRevision(fileID, name string, content []byte) models.Revision {
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	rev := models.Revision{
		ID:               fmt.Sprintf("rev-%d", f.nextID),
		OriginalFilename: name,
		MimeType:         "text/plain",
		Size:             int64(len(content)),
		ModifiedTime:     f.clock.Format(time.RFC3339),
	}
	f.revisions[fileID] = append(f.revisions[fileID], rev)
	f.content[rev.ID] = content
	f.mimeTypes[rev.ID] = rev.MimeType
	return rev
}

func (f *fakeRevisionStore) ListRevisions(ctx context.Context, fileID string) ([]models.Revision, error) {
	out := make([]models.Revision, len(f.revisions[fileID]))
	copy(out, f.revisions[fileID])
	return out, nil
}

func (f *fakeRevisionStore) CurrentRevision(ctx context.Context, fileID string) (*models.Revision, error) {
	revs := f.revisions[fileID]
	if len(revs) == 0 {
		return nil, NewNotFoundError("file has no revisions")
	}
	rev := revs[len(revs)-1]
	return &rev, nil
}

func (f *fakeRevisionStore) CreateRevision(ctx context.Context, req *CreateRevisionRequest) (*models.Revision, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	content, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, NewStorageError("read upload", err)
	}
	f.renamedNames = append(f.renamedNames, req.UploadName)
	rev := f.addRevision(req.FileID, req.UploadName, content)
	if req.KeepForever {
		revs := f.revisions[req.FileID]
		revs[len(revs)-1].KeepForever = true
		rev.KeepForever = true
	}
	return &rev, nil
}

func (f *fakeRevisionStore) DeleteRevision(ctx context.Context, fileID, revisionID string) error {
	if err := f.deleteErr[revisionID]; err != nil {
		return err
	}
	revs := f.revisions[fileID]
	if len(revs) <= 1 {
		return NewConflictError("cannot delete the only revision of a file")
	}
	for i, rev := range revs {
		if rev.ID == revisionID {
			f.revisions[fileID] = append(revs[:i:i], revs[i+1:]...)
			delete(f.content, revisionID)
			return nil
		}
	}
	return NewNotFoundError("revision not found")
}

func (f *fakeRevisionStore) SetKeepForever(ctx context.Context, fileID, revisionID string, keep bool) error {
	if f.keepErr != nil {
		return f.keepErr
	}
	for i, rev := range f.revisions[fileID] {
		if rev.ID == revisionID {
			f.revisions[fileID][i].KeepForever = keep
			return nil
		}
	}
	return NewNotFoundError("revision not found")
}

func (f *fakeRevisionStore) PurgeAllButNewest(ctx context.Context, fileID string) (*models.BatchResult, error) {
	revs := f.revisions[fileID]
	if len(revs) == 0 {
		return nil, NewNotFoundError("file has no revisions")
	}
	result := &models.BatchResult{Attempted: len(revs) - 1}
	kept := []models.Revision{}
	for i, rev := range revs {
		if i == len(revs)-1 {
			kept = append(kept, rev)
			continue
		}
		if err := f.deleteErr[rev.ID]; err != nil {
			result.AddFailure(rev.ID, err)
			kept = append(kept, rev)
			continue
		}
		delete(f.content, rev.ID)
		result.Succeeded++
	}
	f.revisions[fileID] = kept
	return result, nil
}

func (f *fakeRevisionStore) ReadRevisionBytes(ctx context.Context, fileID, revisionID string) ([]byte, string, error) {
	if f.readErr != nil {
		return nil, "", f.readErr
	}
	content, ok := f.content[revisionID]
	if !ok {
		return nil, "", NewNotFoundError("revision not found")
	}
	return bytes.Clone(content), f.mimeTypes[revisionID], nil
}

// fakeFileStore is an in-memory FileStore.
type fakeFileStore struct {
	files     map[string]*models.File
	revisions *fakeRevisionStore
	nextID    int

	createErr  error
	deleteErr  map[string]error
	renameErr  map[string]error
	moveErr    map[string]error
	restoreErr map[string]error
}

func newFakeFileStore(revisions *fakeRevisionStore) *fakeFileStore {
	return &fakeFileStore{
		files:      make(map[string]*models.File),
		revisions:  revisions,
		deleteErr:  make(map[string]error),
		renameErr:  make(map[string]error),
		moveErr:    make(map[string]error),
		restoreErr: make(map[string]error),
	}
}

func (f *fakeFileStore) CreateFile(ctx context.Context, req *CreateFileRequest) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	content, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, NewStorageError("read upload", err)
	}
	f.nextID++
	file := &models.File{
		ID:       fmt.Sprintf("file-%d", f.nextID),
		Name:     req.Name,
		MimeType: req.MimeType,
		FolderID: req.FolderID,
	}
	f.files[file.ID] = file
	f.revisions.addRevision(file.ID, req.Name, content)
	return file, nil
}

func (f *fakeFileStore) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, NewNotFoundError("file not found")
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFileStore) RenameFile(ctx context.Context, fileID, newName string) error {
	if err := f.renameErr[fileID]; err != nil {
		return err
	}
	file, ok := f.files[fileID]
	if !ok {
		return NewNotFoundError("file not found")
	}
	file.Name = newName
	return nil
}

func (f *fakeFileStore) MoveFile(ctx context.Context, fileID, oldParentID, newParentID string) error {
	if err := f.moveErr[fileID]; err != nil {
		return err
	}
	file, ok := f.files[fileID]
	if !ok {
		return NewNotFoundError("file not found")
	}
	file.FolderID = newParentID
	return nil
}

func (f *fakeFileStore) DeleteFile(ctx context.Context, fileID string, permanent bool) error {
	if err := f.deleteErr[fileID]; err != nil {
		return err
	}
	file, ok := f.files[fileID]
	if !ok {
		return NewNotFoundError("file not found")
	}
	if permanent {
		delete(f.files, fileID)
		return nil
	}
	file.Trashed = true
	return nil
}

func (f *fakeFileStore) RestoreFile(ctx context.Context, fileID string) error {
	if err := f.restoreErr[fileID]; err != nil {
		return err
	}
	file, ok := f.files[fileID]
	if !ok {
		return NewNotFoundError("file not found")
	}
	file.Trashed = false
	return nil
}

// fakeMetadataStore is an in-memory MetadataStore with the same compound-key
// semantics as the document database.
type fakeMetadataStore struct {
	descriptions map[string]string           // fileID|revisionID -> description
	comments     map[string][]models.Comment // fileID|revisionID -> thread
	nextID       int

	saveErr       error
	updateCalls   int
	resolvedCalls int
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{
		descriptions: make(map[string]string),
		comments:     make(map[string][]models.Comment),
	}
}

func metaKey(fileID, revisionID string) string {
	return fileID + "|" + revisionID
}

func (f *fakeMetadataStore) SaveVersionMetadata(ctx context.Context, fileID, revisionID, revisionName, description string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.descriptions[metaKey(fileID, revisionID)] = description
	return nil
}

func (f *fakeMetadataStore) GetVersionMetadata(ctx context.Context, fileID, revisionID string) (string, bool, error) {
	desc, ok := f.descriptions[metaKey(fileID, revisionID)]
	return desc, ok, nil
}

func (f *fakeMetadataStore) DeleteVersionMetadata(ctx context.Context, fileID, revisionID string) error {
	delete(f.descriptions, metaKey(fileID, revisionID))
	return nil
}

func (f *fakeMetadataStore) ListComments(ctx context.Context, fileID, revisionID string) ([]models.Comment, error) {
	out := make([]models.Comment, len(f.comments[metaKey(fileID, revisionID)]))
	copy(out, f.comments[metaKey(fileID, revisionID)])
	return out, nil
}

func (f *fakeMetadataStore) GetComment(ctx context.Context, fileID, revisionID, commentID string) (*models.Comment, error) {
	for _, c := range f.comments[metaKey(fileID, revisionID)] {
		if c.ID == commentID {
			copied := c
			return &copied, nil
		}
	}
	return nil, NewNotFoundError("comment not found")
}

func (f *fakeMetadataStore) CreateComment(ctx context.Context, fileID, revisionID, revisionName string, comment *models.Comment) error {
	f.nextID++
	comment.ID = fmt.Sprintf("comment-%d", f.nextID)
	f.comments[metaKey(fileID, revisionID)] = append(f.comments[metaKey(fileID, revisionID)], *comment)
	return nil
}

func (f *fakeMetadataStore) UpdateCommentContent(ctx context.Context, fileID, revisionID, commentID, content string) error {
	f.updateCalls++
	key := metaKey(fileID, revisionID)
	for i, c := range f.comments[key] {
		if c.ID == commentID {
			f.comments[key][i].Content = content
			return nil
		}
	}
	return NewNotFoundError("comment not found")
}

func (f *fakeMetadataStore) DeleteComment(ctx context.Context, fileID, revisionID, commentID string) error {
	key := metaKey(fileID, revisionID)
	for i, c := range f.comments[key] {
		if c.ID == commentID {
			f.comments[key] = append(f.comments[key][:i:i], f.comments[key][i+1:]...)
			return nil
		}
	}
	return NewNotFoundError("comment not found")
}

func (f *fakeMetadataStore) SetCommentResolved(ctx context.Context, fileID, revisionID, commentID string, resolved bool) error {
	f.resolvedCalls++
	key := metaKey(fileID, revisionID)
	for i, c := range f.comments[key] {
		if c.ID == commentID {
			f.comments[key][i].Resolved = resolved
			return nil
		}
	}
	return NewNotFoundError("comment not found")
}

func (f *fakeMetadataStore) CreateReply(ctx context.Context, fileID, revisionID, commentID string, reply *models.Reply) error {
	key := metaKey(fileID, revisionID)
	for i, c := range f.comments[key] {
		if c.ID == commentID {
			f.nextID++
			reply.ID = fmt.Sprintf("reply-%d", f.nextID)
			f.comments[key][i].Replies = append(f.comments[key][i].Replies, *reply)
			return nil
		}
	}
	return NewNotFoundError("comment not found")
}

func (f *fakeMetadataStore) GetReply(ctx context.Context, fileID, revisionID, replyID string) (*models.Reply, error) {
	for _, c := range f.comments[metaKey(fileID, revisionID)] {
		for _, r := range c.Replies {
			if r.ID == replyID {
				copied := r
				return &copied, nil
			}
		}
	}
	return nil, NewNotFoundError("reply not found")
}

func (f *fakeMetadataStore) DeleteReply(ctx context.Context, fileID, revisionID, replyID string) error {
	key := metaKey(fileID, revisionID)
	for i, c := range f.comments[key] {
		for j, r := range c.Replies {
			if r.ID == replyID {
				f.comments[key][i].Replies = append(c.Replies[:j:j], c.Replies[j+1:]...)
				return nil
			}
		}
	}
	return NewNotFoundError("reply not found")
}

var (
	_ RevisionStore = (*fakeRevisionStore)(nil)
	_ FileStore     = (*fakeFileStore)(nil)
	_ MetadataStore = (*fakeMetadataStore)(nil)
)
