// ===============================
// FILE: internal/handlers/api/version_handlers.go
// ===============================

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"drivevault/internal/response"
	"drivevault/internal/services"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const maxUploadMemory = 32 << 20

// VersionController handles the version lifecycle API endpoints.
type VersionController struct {
	versions *services.VersionService
	logger   *zap.Logger
	builder  *response.Builder
}

// NewVersionController creates a version lifecycle controller.
func NewVersionController(versions *services.VersionService, logger *zap.Logger, builder *response.Builder) *VersionController {
	return &VersionController{versions: versions, logger: logger, builder: builder}
}

// ===============================
// UPLOADS & REVERT
// ===============================

// UploadFile handles POST /api/v1/files (multipart).
func (c *VersionController) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid multipart body", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("missing file part", err))
		return
	}
	defer file.Close()

	folderID := r.FormValue("folder_id")
	if folderID == "" {
		c.builder.WriteError(w, r, services.NewValidationError("folder_id is required", nil))
		return
	}
	fileName := r.FormValue("file_name")
	if fileName == "" {
		fileName = header.Filename
	}

	result, err := c.versions.UploadFile(r.Context(), &services.UploadFileRequest{
		FolderID:    folderID,
		FolderName:  r.FormValue("folder_name"),
		FileName:    fileName,
		Content:     file,
		MimeType:    header.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
	})
	c.builder.WriteResult(w, r, result, nil, err)
}

// UploadVersion handles POST /api/v1/files/{fileID}/versions (multipart).
func (c *VersionController) UploadVersion(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid multipart body", err))
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("missing file part", err))
		return
	}
	defer part.Close()

	file, err := c.versions.GetFile(r.Context(), fileID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	result, err := c.versions.UploadVersion(r.Context(), &services.UploadVersionRequest{
		File:           *file,
		Content:        part,
		UploadName:     header.Filename,
		UploadMimeType: header.Header.Get("Content-Type"),
		Description:    r.FormValue("description"),
		KeepForever:    formBool(r, "keep_forever"),
		ChangeMimeType: formBool(r, "change_mime_type"),
		KeepOnlyLatest: formBool(r, "keep_only_latest"),
	})
	c.builder.WriteResult(w, r, result, nil, err)
}

type revertRequest struct {
	TargetID     string `json:"target_id" validate:"required"`
	TargetName   string `json:"target_name" validate:"required"`
	TargetNumber int    `json:"target_number" validate:"gte=1"`
	Description  string `json:"description"`
}

// RevertToVersion handles POST /api/v1/files/{fileID}/revert.
func (c *VersionController) RevertToVersion(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req revertRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}

	file, err := c.versions.GetFile(r.Context(), fileID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	result, err := c.versions.RevertToVersion(r.Context(), &services.RevertRequest{
		File:         *file,
		TargetID:     req.TargetID,
		TargetName:   req.TargetName,
		TargetNumber: req.TargetNumber,
		Description:  req.Description,
	})
	c.builder.WriteResult(w, r, result, nil, err)
}

// ===============================
// LISTING & DOWNLOAD
// ===============================

// ListVersions handles GET /api/v1/files/{fileID}/versions.
func (c *VersionController) ListVersions(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	versions, err := c.versions.ListVersionsForDisplay(r.Context(), fileID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, versions)
}

// DownloadVersions handles GET /api/v1/files/{fileID}/versions/download.
// Query: ids (comma-separated revision ids), name (file display name).
func (c *VersionController) DownloadVersions(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	ids := splitNonEmpty(r.URL.Query().Get("ids"))
	fileName := r.URL.Query().Get("name")
	if fileName == "" {
		fileName = "versions"
	}

	result, err := c.versions.DownloadVersions(r.Context(), fileID, fileName, ids)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	if _, err := w.Write(result.Content); err != nil {
		logHandler(r, c.logger).Warn("download write failed", zap.Error(err))
	}
}

// ===============================
// DELETE & RETENTION
// ===============================

// DeleteVersion handles DELETE /api/v1/files/{fileID}/versions/{revisionID}.
func (c *VersionController) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	result, err := c.versions.DeleteVersion(r.Context(), chi.URLParam(r, "fileID"), chi.URLParam(r, "revisionID"))
	c.builder.WriteResult(w, r, result, nil, err)
}

type versionBatchRequest struct {
	RevisionIDs []string `json:"revision_ids" validate:"required,min=1"`
}

// DeleteVersions handles POST /api/v1/files/{fileID}/versions/delete.
func (c *VersionController) DeleteVersions(w http.ResponseWriter, r *http.Request) {
	var req versionBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.DeleteVersions(r.Context(), chi.URLParam(r, "fileID"), req.RevisionIDs)
	c.builder.WriteResult(w, r, result, batch, nil)
}

type keepForeverRequest struct {
	Keep bool `json:"keep"`
}

// SetKeepForever handles PUT /api/v1/files/{fileID}/versions/{revisionID}/keep-forever.
func (c *VersionController) SetKeepForever(w http.ResponseWriter, r *http.Request) {
	var req keepForeverRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, err := c.versions.ToggleKeepForever(r.Context(), chi.URLParam(r, "fileID"), chi.URLParam(r, "revisionID"), req.Keep)
	c.builder.WriteResult(w, r, result, nil, err)
}

type keepForeverBatchRequest struct {
	RevisionIDs []string `json:"revision_ids" validate:"required,min=1"`
	Keep        bool     `json:"keep"`
}

// SetKeepForeverBatch handles PUT /api/v1/files/{fileID}/versions/keep-forever.
func (c *VersionController) SetKeepForeverBatch(w http.ResponseWriter, r *http.Request) {
	var req keepForeverBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.ToggleKeepForeverBatch(r.Context(), chi.URLParam(r, "fileID"), req.RevisionIDs, req.Keep)
	c.builder.WriteResult(w, r, result, batch, nil)
}

// ===============================
// FILE-LEVEL OPERATIONS
// ===============================

// GetFile handles GET /api/v1/files/{fileID}.
func (c *VersionController) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := c.versions.GetFile(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, file)
}

// DeleteFile handles DELETE /api/v1/files/{fileID}?permanent=true.
func (c *VersionController) DeleteFile(w http.ResponseWriter, r *http.Request) {
	permanent := r.URL.Query().Get("permanent") == "true"
	result, err := c.versions.DeleteFile(r.Context(), chi.URLParam(r, "fileID"), permanent)
	c.builder.WriteResult(w, r, result, nil, err)
}

// RestoreFile handles POST /api/v1/files/{fileID}/restore.
func (c *VersionController) RestoreFile(w http.ResponseWriter, r *http.Request) {
	result, err := c.versions.RestoreFile(r.Context(), chi.URLParam(r, "fileID"))
	c.builder.WriteResult(w, r, result, nil, err)
}

type renameRequest struct {
	NewName string `json:"new_name" validate:"required"`
}

// RenameFile handles PUT /api/v1/files/{fileID}/name.
func (c *VersionController) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, err := c.versions.RenameFile(r.Context(), chi.URLParam(r, "fileID"), req.NewName)
	c.builder.WriteResult(w, r, result, nil, err)
}

type moveRequest struct {
	OldFolderID string `json:"old_folder_id" validate:"required"`
	NewFolderID string `json:"new_folder_id" validate:"required"`
}

// MoveFile handles PUT /api/v1/files/{fileID}/parent.
func (c *VersionController) MoveFile(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, err := c.versions.MoveFile(r.Context(), chi.URLParam(r, "fileID"), req.OldFolderID, req.NewFolderID)
	c.builder.WriteResult(w, r, result, nil, err)
}

type fileBatchRequest struct {
	FileIDs   []string `json:"file_ids" validate:"required,min=1"`
	Permanent bool     `json:"permanent"`
}

// DeleteFiles handles POST /api/v1/files/delete.
func (c *VersionController) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req fileBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.DeleteFiles(r.Context(), req.FileIDs, req.Permanent)
	c.builder.WriteResult(w, r, result, batch, nil)
}

// RestoreFiles handles POST /api/v1/files/restore.
func (c *VersionController) RestoreFiles(w http.ResponseWriter, r *http.Request) {
	var req fileBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.RestoreFiles(r.Context(), req.FileIDs)
	c.builder.WriteResult(w, r, result, batch, nil)
}

type renameBatchRequest struct {
	Names map[string]string `json:"names" validate:"required,min=1"`
}

// RenameFiles handles PUT /api/v1/files/rename.
func (c *VersionController) RenameFiles(w http.ResponseWriter, r *http.Request) {
	var req renameBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.RenameFiles(r.Context(), req.Names)
	c.builder.WriteResult(w, r, result, batch, nil)
}

type moveBatchRequest struct {
	Items []services.MoveFileItem `json:"items" validate:"required,min=1,dive"`
}

// MoveFiles handles POST /api/v1/files/move.
func (c *VersionController) MoveFiles(w http.ResponseWriter, r *http.Request) {
	var req moveBatchRequest
	if !decodeJSON(c.builder, w, r, &req) {
		return
	}
	result, batch := c.versions.MoveFiles(r.Context(), req.Items)
	c.builder.WriteResult(w, r, result, batch, nil)
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.FormValue(key))
	return v
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
