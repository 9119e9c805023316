package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"drivevault/internal/handlers/api"
	"drivevault/internal/middleware"
	"drivevault/internal/response"
	"drivevault/internal/services"
)

// Dependencies carries everything the router wires together.
type Dependencies struct {
	Versions *services.VersionService
	Comments *services.CommentService
	Browse   *services.BrowseService
	Logger   *zap.Logger
}

// New configures all HTTP routes and returns the main handler.
func New(deps Dependencies) http.Handler {
	builder := response.NewBuilder(deps.Logger)
	versionCtrl := api.NewVersionController(deps.Versions, deps.Logger, builder)
	commentCtrl := api.NewCommentController(deps.Comments, deps.Logger, builder)
	browseCtrl := api.NewBrowseController(deps.Browse, deps.Logger, builder)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.StructuredLogging(deps.Logger, time.Second))
	r.Use(middleware.Identity())

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/drives", browseCtrl.ListSharedDrives)
		r.Get("/folders", browseCtrl.ListFolders)

		r.Route("/files", func(r chi.Router) {
			r.Get("/", browseCtrl.ListFiles)
			r.Post("/", versionCtrl.UploadFile)
			r.Get("/recent", browseCtrl.RecentFiles)

			// Batch operations
			r.Post("/delete", versionCtrl.DeleteFiles)
			r.Post("/restore", versionCtrl.RestoreFiles)
			r.Post("/move", versionCtrl.MoveFiles)
			r.Put("/rename", versionCtrl.RenameFiles)

			r.Route("/{fileID}", func(r chi.Router) {
				r.Get("/", versionCtrl.GetFile)
				r.Delete("/", versionCtrl.DeleteFile)
				r.Post("/restore", versionCtrl.RestoreFile)
				r.Put("/name", versionCtrl.RenameFile)
				r.Put("/parent", versionCtrl.MoveFile)
				r.Post("/revert", versionCtrl.RevertToVersion)

				r.Route("/versions", func(r chi.Router) {
					r.Get("/", versionCtrl.ListVersions)
					r.Post("/", versionCtrl.UploadVersion)
					r.Get("/download", versionCtrl.DownloadVersions)
					r.Post("/delete", versionCtrl.DeleteVersions)
					r.Put("/keep-forever", versionCtrl.SetKeepForeverBatch)

					r.Route("/{revisionID}", func(r chi.Router) {
						r.Delete("/", versionCtrl.DeleteVersion)
						r.Put("/keep-forever", versionCtrl.SetKeepForever)

						r.Route("/comments", func(r chi.Router) {
							r.Get("/", commentCtrl.ListComments)
							r.Post("/", commentCtrl.PostComment)
							r.Route("/{commentID}", func(r chi.Router) {
								r.Put("/", commentCtrl.EditComment)
								r.Delete("/", commentCtrl.DeleteComment)
								r.Put("/resolved", commentCtrl.SetResolved)
								r.Post("/replies", commentCtrl.PostReply)
							})
						})
						r.Delete("/replies/{replyID}", commentCtrl.DeleteReply)
					})
				})
			})
		})
	})

	return r
}
