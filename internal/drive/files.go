package drive

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"drivevault/internal/models"
	"drivevault/internal/services"
)

func toFile(f *drive.File) models.File {
	out := models.File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
		Trashed:      f.Trashed,
		Description:  f.Description,
		WebViewLink:  f.WebViewLink,
	}
	if len(f.Parents) > 0 {
		out.FolderID = f.Parents[0]
	}
	return out
}

// CreateFile uploads a brand-new file into a folder.
func (c *Client) CreateFile(ctx context.Context, req *services.CreateFileRequest) (*models.File, error) {
	meta := &drive.File{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.FolderID != "" {
		meta.Parents = []string{req.FolderID}
	}

	created, err := c.svc.Files.Create(meta).
		Media(req.Content, googleapi.ContentType(req.MimeType)).
		SupportsAllDrives(true).
		Fields("id, name, mimeType, parents").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("upload file", err)
	}

	c.logger.Info("file uploaded",
		zap.String("file_id", created.Id),
		zap.String("name", created.Name),
		zap.String("folder_id", req.FolderID),
	)
	file := toFile(created)
	return &file, nil
}

// GetFile fetches a file's metadata.
func (c *Client) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	f, err := c.svc.Files.Get(fileID).
		Fields(googleapi.Field(fileFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("get file", err)
	}
	file := toFile(f)
	return &file, nil
}

// RenameFile sets a file's display name.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) error {
	_, err := c.svc.Files.Update(fileID, &drive.File{Name: newName}).
		SupportsAllDrives(true).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		return wrapErr("rename file", err)
	}
	return nil
}

// MoveFile reparents a file from one folder to another.
func (c *Client) MoveFile(ctx context.Context, fileID, oldParentID, newParentID string) error {
	_, err := c.svc.Files.Update(fileID, &drive.File{}).
		AddParents(newParentID).
		RemoveParents(oldParentID).
		SupportsAllDrives(true).
		Fields("id, name, parents").
		Context(ctx).
		Do()
	if err != nil {
		return wrapErr("move file", err)
	}
	return nil
}

// DeleteFile trashes a file, or erases it permanently. Trashed files stay
// restorable until hard-deleted.
func (c *Client) DeleteFile(ctx context.Context, fileID string, permanent bool) error {
	if permanent {
		if err := c.svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
			return wrapErr("delete file", err)
		}
		c.logger.Info("file permanently deleted", zap.String("file_id", fileID))
		return nil
	}

	_, err := c.svc.Files.Update(fileID, &drive.File{Trashed: true}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return wrapErr("trash file", err)
	}
	c.logger.Info("file moved to trash", zap.String("file_id", fileID))
	return nil
}

// RestoreFile takes a file back out of the trash.
func (c *Client) RestoreFile(ctx context.Context, fileID string) error {
	_, err := c.svc.Files.Update(fileID, &drive.File{
		Trashed:         false,
		ForceSendFields: []string{"Trashed"},
	}).
		SupportsAllDrives(true).
		Fields("id, name, trashed").
		Context(ctx).
		Do()
	if err != nil {
		return wrapErr("restore file", err)
	}
	c.logger.Info("file restored from trash", zap.String("file_id", fileID))
	return nil
}

// ListFiles returns the files in a folder subtree matching the query,
// excluding folders, shortcuts and workspace-native types.
func (c *Client) ListFiles(ctx context.Context, q *services.FileQuery) ([]models.File, error) {
	query := fmt.Sprintf("trashed=%t and %s", q.Trashed, excludeWorkspaceTypes)
	if q.SearchTerm != "" {
		query += fmt.Sprintf(" and name contains '%s'", escapeQueryTerm(q.SearchTerm))
	}
	if q.FolderID != "" {
		folderIDs, err := c.subtreeFolderIDs(ctx, q.DriveID, q.FolderID)
		if err != nil {
			return nil, err
		}
		parents := make([]string, 0, len(folderIDs))
		for _, id := range folderIDs {
			parents = append(parents, fmt.Sprintf("'%s' in parents", id))
		}
		query += " and (" + strings.Join(parents, " or ") + ")"
	}

	return c.listFilesQuery(ctx, q.DriveID, query, "")
}

// ListTrashedFiles returns every trashed file of a drive, folders and
// shortcuts excluded.
func (c *Client) ListTrashedFiles(ctx context.Context, driveID string) ([]models.File, error) {
	query := "trashed = true" +
		" and mimeType != 'application/vnd.google-apps.folder'" +
		" and mimeType != 'application/vnd.google-apps.shortcut'"
	return c.listFilesQuery(ctx, driveID, query, "")
}

// MostRecentFiles lists the most recently modified files under folderID,
// descending into subfolders until maxResults entries are collected.
func (c *Client) MostRecentFiles(ctx context.Context, driveID, folderID string, maxResults int) ([]models.File, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	var all []models.File
	var walk func(id string) error
	walk = func(id string) error {
		if len(all) >= maxResults {
			return nil
		}
		query := fmt.Sprintf("'%s' in parents and trashed = false and %s", id, excludeWorkspaceTypes)
		files, err := c.listFilesQueryLimited(ctx, driveID, query, "modifiedTime desc", int64(maxResults-len(all)))
		if err != nil {
			return err
		}
		all = append(all, files...)
		if len(all) >= maxResults {
			return nil
		}

		subfolders, err := c.childFolders(ctx, driveID, id, "")
		if err != nil {
			return err
		}
		for _, sub := range subfolders {
			if err := walk(sub.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(folderID); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ModifiedTime > all[j].ModifiedTime
	})
	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

// Subfolders fetches the folder tree below folderID depth-first, preserving
// hierarchy order and tagging each entry with its 1-based depth. maxDepth <= 0
// means unbounded; searchTerm filters folder names at every level.
func (c *Client) Subfolders(ctx context.Context, driveID, folderID, searchTerm string, maxDepth int) ([]models.Folder, error) {
	var out []models.Folder
	var walk func(parentID string, depth int) error
	walk = func(parentID string, depth int) error {
		if maxDepth > 0 && depth > maxDepth {
			return nil
		}
		folders, err := c.childFolders(ctx, driveID, parentID, searchTerm)
		if err != nil {
			return err
		}
		for _, f := range folders {
			f.Depth = depth
			out = append(out, f)
			if err := walk(f.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	root := folderID
	if root == "" {
		root = driveID
	}
	if err := walk(root, 1); err != nil {
		return nil, err
	}
	return out, nil
}

// FoldersInfo resolves name and id for each folder. Unresolvable folders are
// skipped so one bad id does not break a whole listing decoration.
func (c *Client) FoldersInfo(ctx context.Context, folderIDs []string) ([]models.Folder, error) {
	folders := make([]models.Folder, 0, len(folderIDs))
	for _, id := range folderIDs {
		f, err := c.svc.Files.Get(id).
			Fields("id, name").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Warn("failed to resolve folder", zap.String("folder_id", id), zap.Error(err))
			continue
		}
		folders = append(folders, models.Folder{ID: f.Id, Name: f.Name})
	}
	return folders, nil
}

// ListSharedDrives pages through every shared drive visible to the session.
func (c *Client) ListSharedDrives(ctx context.Context) ([]models.SharedDrive, error) {
	var drives []models.SharedDrive
	pageToken := ""
	for {
		call := c.svc.Drives.List().
			PageSize(100).
			Fields("nextPageToken, drives(id, name)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, wrapErr("list shared drives", err)
		}
		for _, d := range list.Drives {
			drives = append(drives, models.SharedDrive{ID: d.Id, Name: d.Name})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return drives, nil
		}
	}
}

func (c *Client) listFilesQuery(ctx context.Context, driveID, query, orderBy string) ([]models.File, error) {
	var out []models.File
	pageToken := ""
	for {
		call := c.filesListCall(driveID, query, orderBy)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Context(ctx).Do()
		if err != nil {
			return nil, wrapErr("list files", err)
		}
		for _, f := range list.Files {
			out = append(out, toFile(f))
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func (c *Client) listFilesQueryLimited(ctx context.Context, driveID, query, orderBy string, limit int64) ([]models.File, error) {
	list, err := c.filesListCall(driveID, query, orderBy).
		PageSize(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("list files", err)
	}
	out := make([]models.File, 0, len(list.Files))
	for _, f := range list.Files {
		out = append(out, toFile(f))
	}
	return out, nil
}

func (c *Client) filesListCall(driveID, query, orderBy string) *drive.FilesListCall {
	call := c.svc.Files.List().
		Q(query).
		IncludeItemsFromAllDrives(true).
		SupportsAllDrives(true).
		Fields(googleapi.Field(fmt.Sprintf("nextPageToken, files(%s)", fileFields)))
	if driveID != "" {
		call = call.Corpora("drive").DriveId(driveID)
	}
	if orderBy != "" {
		call = call.OrderBy(orderBy)
	}
	return call
}

func (c *Client) childFolders(ctx context.Context, driveID, parentID, searchTerm string) ([]models.Folder, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", parentID, folderMimeType)
	if searchTerm != "" {
		query += fmt.Sprintf(" and name contains '%s'", escapeQueryTerm(searchTerm))
	}
	call := c.filesListCall(driveID, query, "").PageSize(1000)
	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("list subfolders", err)
	}
	folders := make([]models.Folder, 0, len(list.Files))
	for _, f := range list.Files {
		folders = append(folders, models.Folder{ID: f.Id, Name: f.Name})
	}
	return folders, nil
}

// subtreeFolderIDs collects folderID and every folder below it.
func (c *Client) subtreeFolderIDs(ctx context.Context, driveID, folderID string) ([]string, error) {
	ids := []string{folderID}
	stack := []string{folderID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		folders, err := c.childFolders(ctx, driveID, current, "")
		if err != nil {
			return nil, err
		}
		for _, f := range folders {
			ids = append(ids, f.ID)
			stack = append(stack, f.ID)
		}
	}
	return ids, nil
}

// escapeQueryTerm escapes single quotes and backslashes for Drive query
// string literals.
func escapeQueryTerm(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	return strings.ReplaceAll(term, `'`, `\'`)
}
