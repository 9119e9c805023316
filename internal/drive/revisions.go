package drive

import (
	"context"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"drivevault/internal/models"
	"drivevault/internal/services"
)

func toRevision(r *drive.Revision) models.Revision {
	return models.Revision{
		ID:               r.Id,
		OriginalFilename: r.OriginalFilename,
		MimeType:         r.MimeType,
		Size:             r.Size,
		ModifiedTime:     r.ModifiedTime,
		KeepForever:      r.KeepForever,
	}
}

// ListRevisions returns the file's revision history in provider order.
func (c *Client) ListRevisions(ctx context.Context, fileID string) ([]models.Revision, error) {
	var out []models.Revision
	pageToken := ""
	for {
		call := c.svc.Revisions.List(fileID).
			Fields(googleapi.Field(fmt.Sprintf("nextPageToken, revisions(%s)", revisionFields))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, wrapErr("list revisions", err)
		}
		for _, r := range list.Revisions {
			out = append(out, toRevision(r))
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

// CurrentRevision returns the newest revision: the last element of the
// provider-ordered listing.
func (c *Client) CurrentRevision(ctx context.Context, fileID string) (*models.Revision, error) {
	revisions, err := c.ListRevisions(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		return nil, services.NewNotFoundError("file has no revisions")
	}
	current := revisions[len(revisions)-1]
	return &current, nil
}

// CreateRevision uploads new content as a revision. Drive names a revision
// after the file's current display name, not the uploaded content, so the
// sequence is: rename the file to the upload's filename, upload, optionally
// pin, rename back. A failure between the renames leaves the display name
// transiently wrong but loses no content; the rename-back is retried and the
// caller may re-issue it.
func (c *Client) CreateRevision(ctx context.Context, req *services.CreateRevisionRequest) (*models.Revision, error) {
	if err := c.RenameFile(ctx, req.FileID, req.UploadName); err != nil {
		return nil, err
	}

	meta := &drive.File{Name: req.UploadName}
	if req.MimeType != "" {
		meta.MimeType = req.MimeType
	}
	_, err := c.svc.Files.Update(req.FileID, meta).
		Media(req.Content, googleapi.ContentType(req.MimeType)).
		SupportsAllDrives(true).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		// Content upload failed; restore the display name before reporting.
		c.renameBack(ctx, req.FileID, req.FileName)
		return nil, wrapErr("upload revision", err)
	}

	created, err := c.CurrentRevision(ctx, req.FileID)
	if err != nil {
		c.renameBack(ctx, req.FileID, req.FileName)
		return nil, err
	}

	if req.KeepForever {
		if err := c.SetKeepForever(ctx, req.FileID, created.ID, true); err != nil {
			c.renameBack(ctx, req.FileID, req.FileName)
			return nil, err
		}
		created.KeepForever = true
	}

	c.renameBack(ctx, req.FileID, req.FileName)

	c.logger.Info("revision created",
		zap.String("file_id", req.FileID),
		zap.String("revision_id", created.ID),
		zap.String("upload_name", req.UploadName),
		zap.Bool("keep_forever", req.KeepForever),
	)
	return created, nil
}

// renameBack restores the file's display name with retries. The window where
// the name is still the upload's filename is a recoverable condition, so
// exhausting the retries logs a warning instead of failing the operation.
func (c *Client) renameBack(ctx context.Context, fileID, name string) {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.config.RenameBackMaxElapsed),
	), ctx)

	err := backoff.Retry(func() error {
		return c.RenameFile(ctx, fileID, name)
	}, policy)
	if err != nil {
		c.logger.Warn("failed to restore file display name; re-issue the rename to recover",
			zap.String("file_id", fileID),
			zap.String("name", name),
			zap.Error(err),
		)
	}
}

// DeleteRevision removes one revision. Drive rejects deleting a file's only
// revision with an opaque 400, so the sole-revision case is checked up front
// and surfaced as a conflict the caller can report distinctly.
func (c *Client) DeleteRevision(ctx context.Context, fileID, revisionID string) error {
	revisions, err := c.ListRevisions(ctx, fileID)
	if err != nil {
		return err
	}
	if len(revisions) <= 1 {
		return services.NewConflictError("cannot delete the only revision of a file")
	}

	if err := c.svc.Revisions.Delete(fileID, revisionID).Context(ctx).Do(); err != nil {
		return wrapErr("delete revision", err)
	}
	c.logger.Info("revision deleted",
		zap.String("file_id", fileID),
		zap.String("revision_id", revisionID),
	)
	return nil
}

// SetKeepForever toggles the retention pin on a revision.
func (c *Client) SetKeepForever(ctx context.Context, fileID, revisionID string, keep bool) error {
	rev := &drive.Revision{
		KeepForever:     keep,
		ForceSendFields: []string{"KeepForever"},
	}
	if _, err := c.svc.Revisions.Update(fileID, revisionID, rev).Context(ctx).Do(); err != nil {
		return wrapErr("update keep forever", err)
	}
	return nil
}

// PurgeAllButNewest deletes every revision except the most recent,
// best-effort: a failed deletion is recorded and the purge continues.
func (c *Client) PurgeAllButNewest(ctx context.Context, fileID string) (*models.BatchResult, error) {
	revisions, err := c.ListRevisions(ctx, fileID)
	if err != nil {
		return nil, err
	}
	result := &models.BatchResult{}
	if len(revisions) == 0 {
		return result, nil
	}

	newestID := revisions[len(revisions)-1].ID
	for _, rev := range revisions {
		if rev.ID == newestID {
			continue
		}
		result.Attempted++
		if err := c.svc.Revisions.Delete(fileID, rev.ID).Context(ctx).Do(); err != nil {
			result.AddFailure(rev.ID, err)
			c.logger.Warn("purge: failed to delete revision",
				zap.String("file_id", fileID),
				zap.String("revision_id", rev.ID),
				zap.Error(err),
			)
			continue
		}
		result.Succeeded++
	}

	c.logger.Info("purged old revisions",
		zap.String("file_id", fileID),
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
	)
	return result, nil
}

// ReadRevisionBytes downloads one revision's content and reports its MIME
// type.
func (c *Client) ReadRevisionBytes(ctx context.Context, fileID, revisionID string) ([]byte, string, error) {
	rev, err := c.svc.Revisions.Get(fileID, revisionID).
		Fields("mimeType").
		Context(ctx).
		Do()
	if err != nil {
		return nil, "", wrapErr("get revision", err)
	}
	mimeType := rev.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	resp, err := c.svc.Revisions.Get(fileID, revisionID).Context(ctx).Download()
	if err != nil {
		return nil, "", wrapErr("download revision", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", services.NewStorageError("read revision content", err)
	}
	return content, mimeType, nil
}
