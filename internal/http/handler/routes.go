package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"qdadoc/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// HTML pages
	app.Get("/", Index(docSvc))
	app.Get("/documents/:id/view", ViewDocument(docSvc))

	// JSON API
	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Post("/documents/batch", UploadBatch(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Patch("/documents/:id", UpdateDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Get("/documents/:id/content", GetContent(docSvc))
	app.Get("/documents/:id/selection", SelectSpan(docSvc))
	app.Get("/documents/:id/download", DownloadDocument(docSvc))
}
