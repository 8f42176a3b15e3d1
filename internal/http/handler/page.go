package handler

import (
	"github.com/gofiber/fiber/v2"

	"qdadoc/internal/service"
	"qdadoc/internal/viewer"
)

// Index renders the upload form and a page of documents.
func Index(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}
		limit := service.DefaultListLimit

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}

		page := viewer.IndexPage{Documents: res.Items, Total: res.Total}
		if offset > 0 {
			prev := max(offset-limit, 0)
			page.Prev = &prev
		}
		if offset+len(res.Items) < res.Total {
			next := offset + limit
			page.Next = &next
		}

		c.Type("html", "utf-8")
		return viewer.RenderIndex(c, page)
	}
}

// ViewDocument renders the text in a selectable block. Selecting text in the
// page calls the selection endpoint; nothing is written back.
func ViewDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Type("html", "utf-8")
		return viewer.RenderDocument(c, doc)
	}
}
