// ===============================
// FILE: internal/services/version_service.go
// ===============================

package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"drivevault/internal/cache"
	"drivevault/internal/models"
)

// VersionService drives the version lifecycle: uploads, reverts, deletes,
// retention pins and the decorated listing the dashboard renders. Every
// operation returns an OperationResult with the user-facing message next to
// the typed error; multi-step operations always write storage before
// metadata so a mid-operation failure leaves verified storage truth with at
// worst stale derived metadata, never the other way around.
type VersionService struct {
	revisions RevisionStore
	files     FileStore
	metadata  MetadataStore
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewVersionService creates a version lifecycle service.
func NewVersionService(
	revisions RevisionStore,
	files FileStore,
	metadata MetadataStore,
	c cache.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *VersionService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &VersionService{
		revisions: revisions,
		files:     files,
		metadata:  metadata,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// currentVersionSuffix marks the newest entry in a version listing.
const currentVersionSuffix = " (current version)"

func versionsCacheKey(fileID string) string {
	return "versions:" + fileID
}

// ===============================
// UPLOADS & REVERT
// ===============================

// UploadFile creates a brand-new file and records the description of its
// first version. A metadata failure after a successful creation reports
// failure, but the file and its first revision already exist; only the
// metadata step is retryable.
func (s *VersionService) UploadFile(ctx context.Context, req *UploadFileRequest) (*OperationResult, error) {
	file, err := s.files.CreateFile(ctx, &CreateFileRequest{
		FolderID:    req.FolderID,
		Name:        req.FileName,
		Content:     req.Content,
		MimeType:    req.MimeType,
		Description: req.Description,
	})
	if err != nil {
		s.logger.Error("file upload failed", zap.String("file_name", req.FileName), zap.Error(err))
		return resultFailed(fmt.Sprintf("Failed to upload file: %v", err)), err
	}

	rev, err := s.revisions.CurrentRevision(ctx, file.ID)
	if err != nil {
		return resultFailed(fmt.Sprintf("Failed to read back the uploaded file's version: %v", err)), err
	}

	if err := s.metadata.SaveVersionMetadata(ctx, file.ID, rev.ID, rev.OriginalFilename, req.Description); err != nil {
		return resultFailed(fmt.Sprintf("Failed to save file description: %v", err)), err
	}

	s.invalidateListings(ctx, file.ID)
	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID),
		zap.String("file_name", file.Name),
		zap.String("folder_id", req.FolderID),
	)
	return resultOK(fmt.Sprintf("File '%s' uploaded successfully to '%s'", file.Name, req.FolderName)), nil
}

// UploadVersion uploads new content as the next version of an existing file.
// The storage write and the metadata write are independent failure points; a
// storage failure aborts before any metadata is touched.
func (s *VersionService) UploadVersion(ctx context.Context, req *UploadVersionRequest) (*OperationResult, error) {
	mimeType := req.File.MimeType
	if req.ChangeMimeType {
		mimeType = req.UploadMimeType
	}

	rev, err := s.revisions.CreateRevision(ctx, &CreateRevisionRequest{
		FileID:      req.File.ID,
		FileName:    req.File.Name,
		UploadName:  req.UploadName,
		Content:     req.Content,
		MimeType:    mimeType,
		KeepForever: req.KeepForever,
	})
	if err != nil {
		s.logger.Error("version upload failed", zap.String("file_id", req.File.ID), zap.Error(err))
		return resultFailed(fmt.Sprintf("Failed to upload version: %v", err)), err
	}

	if req.KeepOnlyLatest {
		purge, err := s.revisions.PurgeAllButNewest(ctx, req.File.ID)
		if err != nil {
			return resultFailed(fmt.Sprintf("Version uploaded, but failed to delete old versions: %v", err)), err
		}
		if !purge.AllSucceeded() {
			s.logger.Warn("purge of old versions partially failed",
				zap.String("file_id", req.File.ID),
				zap.Int("attempted", purge.Attempted),
				zap.Int("succeeded", purge.Succeeded),
			)
		}
	}

	if err := s.metadata.SaveVersionMetadata(ctx, req.File.ID, rev.ID, rev.OriginalFilename, req.Description); err != nil {
		return resultFailed(fmt.Sprintf("Failed to save version description: %v", err)), err
	}

	s.invalidateListings(ctx, req.File.ID)

	message := "Version uploaded successfully."
	if req.KeepForever {
		message += " The file will be kept forever."
	}
	if req.KeepOnlyLatest {
		message += " Only the latest version will be kept, and older versions have been deleted."
	}
	return resultOK(message), nil
}

// RevertToVersion re-uploads an old version's bytes as a new current
// version. The provider has no native rollback, so history grows
// monotonically; nothing is truncated. A download failure aborts before any
// write. The new version's description records where it came from.
func (s *VersionService) RevertToVersion(ctx context.Context, req *RevertRequest) (*OperationResult, error) {
	content, _, err := s.revisions.ReadRevisionBytes(ctx, req.File.ID, req.TargetID)
	if err != nil {
		return resultFailed(fmt.Sprintf("Failed to download the version to revert to: %v", err)), err
	}

	rev, err := s.revisions.CreateRevision(ctx, &CreateRevisionRequest{
		FileID:     req.File.ID,
		FileName:   req.File.Name,
		UploadName: req.TargetName,
		Content:    bytes.NewReader(content),
		MimeType:   req.File.MimeType,
	})
	if err != nil {
		s.logger.Error("revert failed", zap.String("file_id", req.File.ID), zap.Error(err))
		return resultFailed(fmt.Sprintf("Failed to revert version: %v", err)), err
	}

	autoDescription := fmt.Sprintf("Reverted from version %d '%s'.", req.TargetNumber, req.TargetName)
	fullDescription := autoDescription
	if req.Description != "" {
		fullDescription = fmt.Sprintf("%s\n(%s)", req.Description, autoDescription)
	}

	if err := s.metadata.SaveVersionMetadata(ctx, req.File.ID, rev.ID, rev.OriginalFilename, fullDescription); err != nil {
		// The revert itself already succeeded; the new version just lost its
		// annotation.
		return resultFailed(fmt.Sprintf("Failed to save version description when reverting: %v", err)), err
	}

	s.invalidateListings(ctx, req.File.ID)
	s.logger.Info("file reverted",
		zap.String("file_id", req.File.ID),
		zap.Int("target_version", req.TargetNumber),
	)
	return resultOK("File reverted successfully to the selected version."), nil
}

// ===============================
// DELETE & RETENTION
// ===============================

// DeleteVersion deletes one version from storage first, and its metadata
// only on success. Metadata for an already-gone revision is a harmless
// orphan; a live revision without metadata is not, so the order is fixed.
func (s *VersionService) DeleteVersion(ctx context.Context, fileID, revisionID string) (*OperationResult, error) {
	if err := s.revisions.DeleteRevision(ctx, fileID, revisionID); err != nil {
		if IsConflictError(err) {
			return resultFailed(GetServiceError(err).Message), err
		}
		return resultFailed("Failed to delete version."), err
	}

	if err := s.metadata.DeleteVersionMetadata(ctx, fileID, revisionID); err != nil {
		s.logger.Warn("version deleted but metadata cleanup failed",
			zap.String("file_id", fileID),
			zap.String("revision_id", revisionID),
			zap.Error(err),
		)
	}

	s.invalidateListings(ctx, fileID)
	return resultOK("Version deleted successfully."), nil
}

// DeleteVersions deletes several versions sequentially, fail-open.
func (s *VersionService) DeleteVersions(ctx context.Context, fileID string, revisionIDs []string) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(revisionIDs)}
	for _, id := range revisionIDs {
		if _, err := s.DeleteVersion(ctx, fileID, id); err != nil {
			batch.AddFailure(id, err)
			continue
		}
		batch.Succeeded++
	}
	message := fmt.Sprintf("Deleted %d of %d versions.", batch.Succeeded, batch.Attempted)
	if batch.AllSucceeded() {
		return resultOK(message), batch
	}
	return resultFailed(message), batch
}

// ToggleKeepForever flips the provider retention pin on one version. No
// metadata-store interaction.
func (s *VersionService) ToggleKeepForever(ctx context.Context, fileID, revisionID string, keep bool) (*OperationResult, error) {
	if err := s.revisions.SetKeepForever(ctx, fileID, revisionID, keep); err != nil {
		return resultFailed(fmt.Sprintf("Failed to update keep forever status: %v", err)), err
	}
	s.invalidateListings(ctx, fileID)
	return resultOK("Keep forever status updated successfully."), nil
}

// ToggleKeepForeverBatch pins or unpins several versions, fail-open.
func (s *VersionService) ToggleKeepForeverBatch(ctx context.Context, fileID string, revisionIDs []string, keep bool) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(revisionIDs)}
	for _, id := range revisionIDs {
		if err := s.revisions.SetKeepForever(ctx, fileID, id, keep); err != nil {
			batch.AddFailure(id, err)
			continue
		}
		batch.Succeeded++
	}
	s.invalidateListings(ctx, fileID)

	state := "OFF"
	if keep {
		state = "ON"
	}
	message := fmt.Sprintf("Set keep forever to %s for %d versions.", state, batch.Succeeded)
	return &OperationResult{Success: batch.Succeeded > 0, Message: message}, batch
}

// ===============================
// LISTING & DOWNLOAD
// ===============================

// ListVersionsForDisplay fetches all versions of a file and decorates them
// for rendering: the stored description (or "N/A"), a 1-based version number
// recomputed from the modification-time ordering, and the current-version
// suffix on the newest entry. Entries with unparseable timestamps sort
// before everything else.
func (s *VersionService) ListVersionsForDisplay(ctx context.Context, fileID string) ([]models.DisplayVersion, error) {
	key := versionsCacheKey(fileID)
	var cached []models.DisplayVersion
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	revs, err := s.revisions.ListRevisions(ctx, fileID)
	if err != nil {
		return nil, err
	}

	versions := make([]models.DisplayVersion, 0, len(revs))
	for _, rev := range revs {
		description := models.NotAvailable
		if desc, ok, err := s.metadata.GetVersionMetadata(ctx, fileID, rev.ID); err != nil {
			s.logger.Warn("version metadata lookup failed",
				zap.String("file_id", fileID),
				zap.String("revision_id", rev.ID),
				zap.Error(err),
			)
		} else if ok && desc != "" {
			description = desc
		}
		versions = append(versions, models.DisplayVersion{
			Revision:    rev,
			DisplayName: rev.OriginalFilename,
			Description: description,
		})
	}

	sortVersionsByModifiedTime(versions)
	for i := range versions {
		versions[i].VersionNumber = i + 1
	}
	if len(versions) > 0 {
		versions[len(versions)-1].DisplayName += currentVersionSuffix
	}

	if err := s.cache.Set(ctx, key, versions, s.cacheTTL); err != nil {
		s.logger.Debug("version listing cache write failed", zap.Error(err))
	}
	return versions, nil
}

// sortVersionsByModifiedTime orders versions ascending by modification time.
// Entries whose timestamp does not parse sort first, keeping their relative
// order, so they end up with the lowest version numbers.
func sortVersionsByModifiedTime(versions []models.DisplayVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		ti, iOK := parseRevisionTime(versions[i].ModifiedTime)
		tj, jOK := parseRevisionTime(versions[j].ModifiedTime)
		if iOK != jOK {
			return !iOK
		}
		if !iOK {
			return false
		}
		return ti.Before(tj)
	})
}

func parseRevisionTime(value string) (time.Time, bool) {
	if value == "" || value == models.NotAvailable {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DownloadVersions fetches the bytes of the requested versions. One version
// comes back raw under its own filename; several are bundled into a zip
// named <file name>_v<min>-<max>.zip. Individual download failures are
// skipped, fail-open; only an empty result is an error.
func (s *VersionService) DownloadVersions(ctx context.Context, fileID, fileName string, revisionIDs []string) (*DownloadResult, error) {
	if len(revisionIDs) == 0 {
		return nil, NewValidationError("no versions selected for download", nil)
	}

	versions, err := s.ListVersionsForDisplay(ctx, fileID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.DisplayVersion, len(versions))
	for _, v := range versions {
		byID[v.ID] = v
	}

	type entry struct {
		name     string
		mimeType string
		content  []byte
		number   int
	}
	var entries []entry
	for _, id := range revisionIDs {
		version, ok := byID[id]
		if !ok {
			s.logger.Warn("download skipped unknown version",
				zap.String("file_id", fileID),
				zap.String("revision_id", id),
			)
			continue
		}
		content, mimeType, err := s.revisions.ReadRevisionBytes(ctx, fileID, id)
		if err != nil {
			s.logger.Warn("version download failed",
				zap.String("file_id", fileID),
				zap.String("revision_id", id),
				zap.Error(err),
			)
			continue
		}
		name := version.OriginalFilename
		if name == "" {
			name = fmt.Sprintf("v%d_%s", version.VersionNumber, fileName)
		}
		entries = append(entries, entry{name: name, mimeType: mimeType, content: content, number: version.VersionNumber})
	}

	if len(entries) == 0 {
		return nil, NewStorageError("no versions could be downloaded", nil)
	}

	if len(entries) == 1 {
		e := entries[0]
		return &DownloadResult{FileName: e.name, MimeType: e.mimeType, Content: e.content}, nil
	}

	minNumber, maxNumber := entries[0].number, entries[0].number
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.number < minNumber {
			minNumber = e.number
		}
		if e.number > maxNumber {
			maxNumber = e.number
		}
		w, err := zw.Create(e.name)
		if err != nil {
			zw.Close()
			return nil, NewInternalError(fmt.Sprintf("failed to build archive: %v", err))
		}
		if _, err := w.Write(e.content); err != nil {
			zw.Close()
			return nil, NewInternalError(fmt.Sprintf("failed to build archive: %v", err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, NewInternalError(fmt.Sprintf("failed to build archive: %v", err))
	}

	return &DownloadResult{
		FileName: fmt.Sprintf("%s_v%d-%d.zip", fileName, minNumber, maxNumber),
		MimeType: "application/zip",
		Content:  buf.Bytes(),
	}, nil
}

// ===============================
// FILE-LEVEL OPERATIONS
// ===============================

// GetFile fetches one file's provider metadata.
func (s *VersionService) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	return s.files.GetFile(ctx, fileID)
}

// DeleteFile trashes a file, or permanently deletes it.
func (s *VersionService) DeleteFile(ctx context.Context, fileID string, permanent bool) (*OperationResult, error) {
	if err := s.files.DeleteFile(ctx, fileID, permanent); err != nil {
		return resultFailed("Failed to delete file."), err
	}
	s.invalidateListings(ctx, fileID)
	if permanent {
		return resultOK("File permanently deleted successfully."), nil
	}
	return resultOK("File moved to trash successfully."), nil
}

// RestoreFile brings a trashed file back.
func (s *VersionService) RestoreFile(ctx context.Context, fileID string) (*OperationResult, error) {
	if err := s.files.RestoreFile(ctx, fileID); err != nil {
		return resultFailed("Failed to restore file."), err
	}
	s.invalidateListings(ctx, fileID)
	return resultOK("File restored successfully."), nil
}

// RenameFile renames a file; version history is untouched.
func (s *VersionService) RenameFile(ctx context.Context, fileID, newName string) (*OperationResult, error) {
	if err := s.files.RenameFile(ctx, fileID, newName); err != nil {
		return resultFailed(fmt.Sprintf("Failed to rename file: %v", err)), err
	}
	s.invalidateListings(ctx, fileID)
	return resultOK("File renamed successfully."), nil
}

// MoveFile moves a file between folders.
func (s *VersionService) MoveFile(ctx context.Context, fileID, oldFolderID, newFolderID string) (*OperationResult, error) {
	if err := s.files.MoveFile(ctx, fileID, oldFolderID, newFolderID); err != nil {
		return resultFailed(fmt.Sprintf("Failed to move file: %v", err)), err
	}
	s.invalidateListings(ctx, fileID)
	return resultOK("File moved successfully."), nil
}

// MoveFiles moves several files sequentially, fail-open.
func (s *VersionService) MoveFiles(ctx context.Context, items []MoveFileItem) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(items)}
	for _, item := range items {
		if _, err := s.MoveFile(ctx, item.FileID, item.OldFolderID, item.NewFolderID); err != nil {
			batch.AddFailure(item.FileID, err)
			continue
		}
		batch.Succeeded++
	}
	message := fmt.Sprintf("Moved %d of %d files.", batch.Succeeded, batch.Attempted)
	if batch.AllSucceeded() {
		return resultOK(message), batch
	}
	return resultFailed(message), batch
}

// DeleteFiles trashes or permanently deletes several files, fail-open.
func (s *VersionService) DeleteFiles(ctx context.Context, fileIDs []string, permanent bool) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(fileIDs)}
	for _, id := range fileIDs {
		if _, err := s.DeleteFile(ctx, id, permanent); err != nil {
			batch.AddFailure(id, err)
			continue
		}
		batch.Succeeded++
	}
	message := fmt.Sprintf("Deleted %d of %d files.", batch.Succeeded, batch.Attempted)
	if batch.AllSucceeded() {
		return resultOK(message), batch
	}
	return resultFailed(message), batch
}

// RestoreFiles restores several trashed files, fail-open.
func (s *VersionService) RestoreFiles(ctx context.Context, fileIDs []string) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(fileIDs)}
	for _, id := range fileIDs {
		if _, err := s.RestoreFile(ctx, id); err != nil {
			batch.AddFailure(id, err)
			continue
		}
		batch.Succeeded++
	}
	message := fmt.Sprintf("Restored %d of %d files.", batch.Succeeded, batch.Attempted)
	if batch.AllSucceeded() {
		return resultOK(message), batch
	}
	return resultFailed(message), batch
}

// RenameFiles renames several files sequentially, fail-open. names maps
// file id to its new name.
func (s *VersionService) RenameFiles(ctx context.Context, names map[string]string) (*OperationResult, *models.BatchResult) {
	batch := &models.BatchResult{Attempted: len(names)}
	for id, name := range names {
		if _, err := s.RenameFile(ctx, id, name); err != nil {
			batch.AddFailure(id, err)
			continue
		}
		batch.Succeeded++
	}
	message := fmt.Sprintf("Renamed %d of %d files.", batch.Succeeded, batch.Attempted)
	if batch.AllSucceeded() {
		return resultOK(message), batch
	}
	return resultFailed(message), batch
}

// invalidateListings drops every cached listing touching fileID.
func (s *VersionService) invalidateListings(ctx context.Context, fileID string) {
	if err := s.cache.Delete(ctx, versionsCacheKey(fileID)); err != nil {
		s.logger.Debug("cache invalidation failed", zap.String("file_id", fileID), zap.Error(err))
	}
	if err := s.cache.DeletePattern(ctx, "files:*"); err != nil {
		s.logger.Debug("cache invalidation failed", zap.Error(err))
	}
}
