// file: internal/services/version_service_test.go
package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"drivevault/internal/cache"
	"drivevault/internal/models"
)

func newTestVersionService(t *testing.T) (*VersionService, *fakeRevisionStore, *fakeFileStore, *fakeMetadataStore) {
	t.Helper()
	logger := zap.NewNop()
	revisions := newFakeRevisionStore()
	files := newFakeFileStore(revisions)
	metadata := newFakeMetadataStore()
	c := cache.NewMemoryCache(cache.DefaultConfig(), logger)
	t.Cleanup(func() { c.Close() })

	svc := NewVersionService(revisions, files, metadata, c, time.Minute, logger)
	return svc, revisions, files, metadata
}

func uploadTestFile(t *testing.T, svc *VersionService, name, description, content string) *models.File {
	t.Helper()
	result, err := svc.UploadFile(context.Background(), &UploadFileRequest{
		FolderID:    "folder-1",
		FolderName:  "Assets",
		FileName:    name,
		Content:     strings.NewReader(content),
		MimeType:    "text/plain",
		Description: description,
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	file, err := svc.GetFile(context.Background(), "file-1")
	require.NoError(t, err)
	return file
}

func TestUploadFileCreatesFirstVersion(t *testing.T) {
	svc, _, _, _ := newTestVersionService(t)

	file := uploadTestFile(t, svc, "draft.txt", "v1", "hello")

	versions, err := svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, "draft.txt (current version)", versions[0].DisplayName)
	assert.Equal(t, "v1", versions[0].Description)
}

func TestUploadVersionMovesCurrentSuffix(t *testing.T) {
	svc, _, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "hello")

	result, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:        *file,
		Content:     strings.NewReader("hello again"),
		UploadName:  "draft.txt",
		Description: "v2",
		KeepForever: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "kept forever")

	versions, err := svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.NotContains(t, versions[0].DisplayName, "(current version)")
	assert.Equal(t, 2, versions[1].VersionNumber)
	assert.Contains(t, versions[1].DisplayName, "(current version)")
	assert.True(t, versions[1].KeepForever)
	assert.Equal(t, "v2", versions[1].Description)
}

func TestRevertCreatesNewVersion(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "original")

	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:        *file,
		Content:     strings.NewReader("changed"),
		UploadName:  "draft.txt",
		Description: "v2",
	})
	require.NoError(t, err)

	versions, err := svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	result, err := svc.RevertToVersion(context.Background(), &RevertRequest{
		File:         *file,
		TargetID:     versions[0].ID,
		TargetName:   versions[0].OriginalFilename,
		TargetNumber: versions[0].VersionNumber,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	versions, err = svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Contains(t, versions[2].Description, "Reverted from version 1")

	// The new current version carries the old content.
	content, _, err := revisions.ReadRevisionBytes(context.Background(), file.ID, versions[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestRevertKeepsUserDescription(t *testing.T) {
	svc, _, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "original")

	versions, err := svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)

	_, err = svc.RevertToVersion(context.Background(), &RevertRequest{
		File:         *file,
		TargetID:     versions[0].ID,
		TargetName:   versions[0].OriginalFilename,
		TargetNumber: 1,
		Description:  "going back",
	})
	require.NoError(t, err)

	versions, err = svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.True(t, strings.HasPrefix(versions[1].Description, "going back\n("))
	assert.Contains(t, versions[1].Description, "Reverted from version 1 'draft.txt'.")
}

func TestDeleteSoleRevisionConflict(t *testing.T) {
	svc, revisions, _, metadata := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "hello")

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)

	result, err := svc.DeleteVersion(context.Background(), file.ID, revs[0].ID)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
	assert.False(t, result.Success)

	// Revision and metadata both intact.
	revs, err = revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 1)
	_, ok, err := metadata.GetVersionMetadata(context.Background(), file.ID, revs[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteVersionRemovesMetadata(t *testing.T) {
	svc, revisions, _, metadata := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "hello")
	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:        *file,
		Content:     strings.NewReader("more"),
		UploadName:  "draft.txt",
		Description: "v2",
	})
	require.NoError(t, err)

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)

	result, err := svc.DeleteVersion(context.Background(), file.ID, revs[0].ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Version deleted successfully.", result.Message)

	_, ok, err := metadata.GetVersionMetadata(context.Background(), file.ID, revs[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteVersionStorageFailureKeepsMetadata(t *testing.T) {
	svc, revisions, _, metadata := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "hello")
	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:       *file,
		Content:    strings.NewReader("more"),
		UploadName: "draft.txt",
	})
	require.NoError(t, err)

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	revisions.deleteErr[revs[0].ID] = NewStorageError("provider unavailable", nil)

	result, err := svc.DeleteVersion(context.Background(), file.ID, revs[0].ID)
	require.Error(t, err)
	assert.False(t, result.Success)

	// Metadata untouched: deleting it first could orphan a live revision.
	_, ok, err := metadata.GetVersionMetadata(context.Background(), file.ID, revs[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListVersionsUnparseableTimestampsFirst(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "a")

	// Hand the store a revision whose timestamp the provider never filled.
	revisions.revisions[file.ID] = append(revisions.revisions[file.ID], models.Revision{
		ID:               "rev-na",
		OriginalFilename: "draft.txt",
	})

	versions, err := svc.ListVersionsForDisplay(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "rev-na", versions[0].ID)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, 2, versions[1].VersionNumber)
	assert.Contains(t, versions[1].DisplayName, "(current version)")
	assert.Equal(t, models.NotAvailable, versions[0].Description)
}

func TestUploadVersionKeepOnlyLatest(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "a")
	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:       *file,
		Content:    strings.NewReader("b"),
		UploadName: "draft.txt",
	})
	require.NoError(t, err)

	result, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:           *file,
		Content:        strings.NewReader("c"),
		UploadName:     "draft.txt",
		KeepOnlyLatest: true,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Message, "Only the latest version will be kept")

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	content, _, err := revisions.ReadRevisionBytes(context.Background(), file.ID, revs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "c", string(content))
}

func TestMetadataFailureAfterUploadReportsMetadataStep(t *testing.T) {
	svc, revisions, _, metadata := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "a")

	metadata.saveErr = NewMetadataError("connection refused", nil)
	result, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:       *file,
		Content:    strings.NewReader("b"),
		UploadName: "draft.txt",
	})
	require.Error(t, err)
	assert.True(t, IsMetadataError(err))
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "description")

	// The storage write already happened; only the metadata step failed.
	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 2)
}

func TestDownloadSingleVersionRaw(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "raw bytes")

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)

	result, err := svc.DownloadVersions(context.Background(), file.ID, file.Name, []string{revs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "draft.txt", result.FileName)
	assert.Equal(t, "text/plain", result.MimeType)
	assert.Equal(t, "raw bytes", string(result.Content))
}

func TestDownloadMultipleVersionsZip(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "first")
	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:       *file,
		Content:    strings.NewReader("second"),
		UploadName: "draft_2.txt",
	})
	require.NoError(t, err)

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)

	result, err := svc.DownloadVersions(context.Background(), file.ID, file.Name, []string{revs[0].ID, revs[1].ID})
	require.NoError(t, err)
	assert.Equal(t, "draft.txt_v1-2.zip", result.FileName)
	assert.Equal(t, "application/zip", result.MimeType)

	reader, err := zip.NewReader(bytes.NewReader(result.Content), int64(len(result.Content)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	names := map[string]string{}
	for _, zf := range reader.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		names[zf.Name] = string(data)
	}
	assert.Equal(t, "first", names["draft.txt"])
	assert.Equal(t, "second", names["draft_2.txt"])
}

func TestDeleteFilesFailOpen(t *testing.T) {
	svc, _, files, _ := newTestVersionService(t)
	files.files["file-a"] = &models.File{ID: "file-a", Name: "a.txt"}
	files.files["file-b"] = &models.File{ID: "file-b", Name: "b.txt"}
	files.deleteErr["file-a"] = NewStorageError("provider unavailable", nil)

	result, batch := svc.DeleteFiles(context.Background(), []string{"file-a", "file-b"}, false)
	assert.False(t, result.Success)
	assert.Equal(t, "Deleted 1 of 2 files.", result.Message)
	assert.Equal(t, 2, batch.Attempted)
	assert.Equal(t, 1, batch.Succeeded)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, "file-a", batch.Failures[0].Item)

	// The second file was still processed.
	assert.True(t, files.files["file-b"].Trashed)
}

func TestMoveFilesAggregateMessage(t *testing.T) {
	svc, _, files, _ := newTestVersionService(t)
	files.files["file-a"] = &models.File{ID: "file-a", FolderID: "old"}
	files.files["file-b"] = &models.File{ID: "file-b", FolderID: "old"}

	result, batch := svc.MoveFiles(context.Background(), []MoveFileItem{
		{FileID: "file-a", OldFolderID: "old", NewFolderID: "new"},
		{FileID: "file-b", OldFolderID: "old", NewFolderID: "new"},
	})
	assert.True(t, result.Success)
	assert.Equal(t, "Moved 2 of 2 files.", result.Message)
	assert.True(t, batch.AllSucceeded())
	assert.Equal(t, "new", files.files["file-a"].FolderID)
}

func TestToggleKeepForeverBatch(t *testing.T) {
	svc, revisions, _, _ := newTestVersionService(t)
	file := uploadTestFile(t, svc, "draft.txt", "v1", "a")
	_, err := svc.UploadVersion(context.Background(), &UploadVersionRequest{
		File:       *file,
		Content:    strings.NewReader("b"),
		UploadName: "draft.txt",
	})
	require.NoError(t, err)

	revs, err := revisions.ListRevisions(context.Background(), file.ID)
	require.NoError(t, err)

	result, batch := svc.ToggleKeepForeverBatch(context.Background(), file.ID, []string{revs[0].ID, revs[1].ID}, true)
	assert.True(t, result.Success)
	assert.Equal(t, "Set keep forever to ON for 2 versions.", result.Message)
	assert.True(t, batch.AllSucceeded())

	revs, _ = revisions.ListRevisions(context.Background(), file.ID)
	assert.True(t, revs[0].KeepForever)
	assert.True(t, revs[1].KeepForever)
}
