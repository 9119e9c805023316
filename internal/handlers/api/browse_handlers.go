// ===============================
// FILE: internal/handlers/api/browse_handlers.go
// ===============================

package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"drivevault/internal/response"
	"drivevault/internal/services"
)

// BrowseController handles the read-only listing endpoints.
type BrowseController struct {
	browse  *services.BrowseService
	logger  *zap.Logger
	builder *response.Builder
}

// NewBrowseController creates a browse controller.
func NewBrowseController(browse *services.BrowseService, logger *zap.Logger, builder *response.Builder) *BrowseController {
	return &BrowseController{browse: browse, logger: logger, builder: builder}
}

// ListFiles handles GET /api/v1/files.
// Query: drive_id, folder_id, search, trashed.
func (c *BrowseController) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("trashed") == "true" {
		files, err := c.browse.ListTrashedFiles(r.Context(), query.Get("drive_id"))
		if err != nil {
			c.builder.WriteError(w, r, err)
			return
		}
		c.builder.WriteSuccess(w, r, files)
		return
	}

	files, err := c.browse.ListFiles(r.Context(), &services.FileQuery{
		DriveID:    query.Get("drive_id"),
		FolderID:   query.Get("folder_id"),
		SearchTerm: query.Get("search"),
	})
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, files)
}

// RecentFiles handles GET /api/v1/files/recent.
// Query: drive_id, folder_id, max_results.
func (c *BrowseController) RecentFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	maxResults := 20
	if raw := query.Get("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxResults = n
		}
	}

	files, err := c.browse.MostRecentFiles(r.Context(), query.Get("drive_id"), query.Get("folder_id"), maxResults)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, files)
}

// ListFolders handles GET /api/v1/folders.
// Query: drive_id, folder_id, search, max_depth.
func (c *BrowseController) ListFolders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	maxDepth := 3
	if raw := query.Get("max_depth"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxDepth = n
		}
	}

	folders, err := c.browse.Subfolders(r.Context(), query.Get("drive_id"), query.Get("folder_id"), query.Get("search"), maxDepth)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, folders)
}

// ListSharedDrives handles GET /api/v1/drives.
func (c *BrowseController) ListSharedDrives(w http.ResponseWriter, r *http.Request) {
	drives, err := c.browse.ListSharedDrives(r.Context())
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, drives)
}
