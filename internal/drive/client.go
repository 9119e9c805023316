// Package drive adapts the Google Drive v3 API to the revision, file and
// browse store contracts. It owns the provider's naming quirk for new
// revisions and the shared-drive scoping every call needs.
package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"drivevault/internal/services"
)

// Workspace-native types are excluded from file listings: they carry their
// own versioning inside Drive and binary revision operations do not apply.
const excludeWorkspaceTypes = "mimeType != 'application/vnd.google-apps.folder'" +
	" and mimeType != 'application/vnd.google-apps.shortcut'" +
	" and mimeType != 'application/vnd.google-apps.document'" +
	" and mimeType != 'application/vnd.google-apps.spreadsheet'" +
	" and mimeType != 'application/vnd.google-apps.presentation'"

const (
	folderMimeType = "application/vnd.google-apps.folder"

	fileFields     = "id, name, mimeType, parents, size, createdTime, modifiedTime, trashed, description, webViewLink"
	revisionFields = "id, originalFilename, mimeType, size, modifiedTime, keepForever"
)

// Config holds the Drive client configuration.
type Config struct {
	// CredentialsFile is a service-account or authorized-user credentials
	// JSON file; TokenSource takes precedence when set.
	CredentialsFile string
	TokenSource     oauth2.TokenSource

	// RenameBackMaxElapsed bounds the retry window for restoring the file's
	// display name after a version upload.
	RenameBackMaxElapsed time.Duration
}

// Client implements the revision, file and browse stores over Drive.
type Client struct {
	svc    *drive.Service
	logger *zap.Logger
	config Config
}

// NewClient builds a Drive client from config.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(cfg.TokenSource))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, fmt.Errorf("drive: no credentials configured")
	}
	opts = append(opts, option.WithScopes(drive.DriveScope))

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}

	if cfg.RenameBackMaxElapsed == 0 {
		cfg.RenameBackMaxElapsed = 30 * time.Second
	}

	return &Client{svc: svc, logger: logger, config: cfg}, nil
}

// NewClientWithService wraps an existing Drive service, primarily for tests
// against a stub HTTP transport.
func NewClientWithService(svc *drive.Service, logger *zap.Logger) *Client {
	return &Client{svc: svc, logger: logger, config: Config{RenameBackMaxElapsed: 30 * time.Second}}
}

// wrapErr translates a Drive API error into the service error taxonomy,
// preserving the provider's detail text.
func wrapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return services.NewNotFoundError(fmt.Sprintf("%s: %s", op, gerr.Message))
	}
	return services.NewStorageError(op+" failed", err)
}

var _ services.RevisionStore = (*Client)(nil)
var _ services.FileStore = (*Client)(nil)
var _ services.BrowseStore = (*Client)(nil)
