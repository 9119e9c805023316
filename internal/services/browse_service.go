// ===============================
// FILE: internal/services/browse_service.go
// ===============================

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"drivevault/internal/cache"
	"drivevault/internal/models"
)

// BrowseService serves the read-only listings the dashboard navigates with:
// files, trashed files, recent files, folder trees and shared drives.
// Listings are cached; any lifecycle write invalidates them.
type BrowseService struct {
	store    BrowseStore
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewBrowseService creates a browse service.
func NewBrowseService(store BrowseStore, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *BrowseService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &BrowseService{store: store, cache: c, cacheTTL: cacheTTL, logger: logger}
}

// ListFiles lists the files in a folder subtree, optionally filtered by a
// search term, with each file's parent folder resolved to a name.
func (s *BrowseService) ListFiles(ctx context.Context, q *FileQuery) ([]models.File, error) {
	key := fmt.Sprintf("files:%s:%s:%s", q.DriveID, q.FolderID, q.SearchTerm)
	var cached []models.File
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	files, err := s.store.ListFiles(ctx, q)
	if err != nil {
		return nil, err
	}
	files, err = s.resolveFolderNames(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, files, s.cacheTTL); err != nil {
		s.logger.Debug("file listing cache write failed", zap.Error(err))
	}
	return files, nil
}

// ListTrashedFiles lists the trashed files of a drive, newest first.
func (s *BrowseService) ListTrashedFiles(ctx context.Context, driveID string) ([]models.File, error) {
	files, err := s.store.ListTrashedFiles(ctx, driveID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTime > files[j].ModifiedTime
	})
	return files, nil
}

// MostRecentFiles returns the most recently modified files under a folder
// subtree, folder names resolved.
func (s *BrowseService) MostRecentFiles(ctx context.Context, driveID, folderID string, maxResults int) ([]models.File, error) {
	key := fmt.Sprintf("files:recent:%s:%s:%d", driveID, folderID, maxResults)
	var cached []models.File
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	files, err := s.store.MostRecentFiles(ctx, driveID, folderID, maxResults)
	if err != nil {
		return nil, err
	}
	files, err = s.resolveFolderNames(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, files, s.cacheTTL); err != nil {
		s.logger.Debug("file listing cache write failed", zap.Error(err))
	}
	return files, nil
}

// Subfolders lists the folder tree under folderID down to maxDepth,
// optionally filtered by a search term.
func (s *BrowseService) Subfolders(ctx context.Context, driveID, folderID, searchTerm string, maxDepth int) ([]models.Folder, error) {
	return s.store.Subfolders(ctx, driveID, folderID, searchTerm, maxDepth)
}

// ListSharedDrives lists the shared drives available to the session.
func (s *BrowseService) ListSharedDrives(ctx context.Context) ([]models.SharedDrive, error) {
	return s.store.ListSharedDrives(ctx)
}

// resolveFolderNames fills in FolderName for every file from a single
// folder-info lookup over the distinct parents. Unknown parents keep an
// explicit placeholder rather than an empty name.
func (s *BrowseService) resolveFolderNames(ctx context.Context, files []models.File) ([]models.File, error) {
	seen := make(map[string]bool)
	var folderIDs []string
	for _, f := range files {
		if f.FolderID != "" && !seen[f.FolderID] {
			seen[f.FolderID] = true
			folderIDs = append(folderIDs, f.FolderID)
		}
	}
	if len(folderIDs) == 0 {
		return files, nil
	}

	folders, err := s.store.FoldersInfo(ctx, folderIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(folders))
	for _, folder := range folders {
		names[folder.ID] = folder.Name
	}

	for i := range files {
		if name, ok := names[files[i].FolderID]; ok {
			files[i].FolderName = name
		} else {
			files[i].FolderName = "Unknown Folder"
		}
	}
	return files, nil
}
