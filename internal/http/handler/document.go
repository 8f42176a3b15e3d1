package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"qdadoc/internal/model"
	"qdadoc/internal/service"
)

const textPlain = "text/plain; charset=utf-8"

// uploadResult is one entry of a batch upload response. Exactly one of
// Document and Error is set.
type uploadResult struct {
	Filename string          `json:"filename"`
	Document *model.Document `json:"document,omitempty"`
	Error    *errorEnvelope  `json:"error,omitempty"`
}

type batchResponse struct {
	Results []uploadResult `json:"results"`
}

// updateRequest documents the PATCH body for Swagger.
type updateRequest struct {
	Name *string `json:"name,omitempty"`
	Memo *string `json:"memo,omitempty"`
}

// documentID validates the :id path parameter and tags the request span with it.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	trace.SpanFromContext(c.UserContext()).SetAttributes(attribute.String("document.id", id))
	return id, true
}

// ListDocuments returns paginated document summaries.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    limit  query int false "page size (max 100)" default(10)
// @Param    offset query int false "rows to skip"        default(0)
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Failure  503 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(service.DefaultListLimit)))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a single plain-text file (multipart field "file").
//
// @Summary  Upload a text file
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file  formData file   true  "plain-text file"
// @Param    owner formData string false "owner"
// @Param    memo  formData string false "memo"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  415 {object} errorPayload
// @Router   /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		doc, err := uploadOne(c, docSvc, fh, service.UploadRequest{
			Filename: fh.Filename,
			Owner:    c.FormValue("owner"),
			Memo:     c.FormValue("memo"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// UploadBatch stores every file of the multipart field "files". A failing
// file does not stop the others; each gets its own result entry.
//
// @Summary  Upload several text files
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    files formData file   true  "plain-text files"
// @Param    owner formData string false "owner applied to every file"
// @Param    memo  formData string false "memo applied to every file"
// @Success  200 {object} batchResponse
// @Failure  400 {object} errorPayload
// @Router   /documents/batch [post]
func UploadBatch(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil || len(form.File["files"]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}
		owner := c.FormValue("owner")
		memo := c.FormValue("memo")

		files := form.File["files"]
		res := batchResponse{Results: make([]uploadResult, 0, len(files))}
		for _, fh := range files {
			doc, err := uploadOne(c, docSvc, fh, service.UploadRequest{Filename: fh.Filename, Owner: owner, Memo: memo})
			if err != nil {
				status, env := classifyError(err)
				logServerError(c, status, err)
				res.Results = append(res.Results, uploadResult{Filename: fh.Filename, Error: &env})
				continue
			}
			res.Results = append(res.Results, uploadResult{Filename: fh.Filename, Document: doc})
		}
		return c.JSON(res)
	}
}

func uploadOne(c *fiber.Ctx, docSvc service.DocumentService, fh *multipart.FileHeader, req service.UploadRequest) (*model.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return docSvc.Upload(c.UserContext(), f, req)
}

// GetDocument returns one document including its text.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id (uuid)"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetContent returns the stored text exactly as uploaded.
//
// @Summary  Raw document text
// @Tags     documents
// @Produce  plain
// @Param    id path string true "document id (uuid)"
// @Success  200 {string} string
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/content [get]
func GetContent(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, textPlain)
		return c.SendString(doc.Content)
	}
}

// SelectSpan returns the text between two code-point offsets. Nothing is stored.
//
// @Summary  Select a span of text
// @Tags     documents
// @Produce  json
// @Param    id    path  string true "document id (uuid)"
// @Param    start query int    true "start offset (inclusive)"
// @Param    end   query int    true "end offset (exclusive)"
// @Success  200 {object} model.Selection
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/selection [get]
func SelectSpan(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		start, err1 := strconv.Atoi(c.Query("start"))
		end, err2 := strconv.Atoi(c.Query("end"))
		if err1 != nil || err2 != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SELECTION", "start and end must be integers")
		}

		sel, err := docSvc.Select(c.UserContext(), id, start, end)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sel)
	}
}

// UpdateDocument edits name and memo. The text itself cannot be changed.
//
// @Summary  Update document metadata
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id   path string        true "document id (uuid)"
// @Param    body body updateRequest true "fields to change"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [patch]
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		patch, err := parsePatch(c.Body())
		if err != nil {
			if errors.Is(err, errContentImmutable) {
				return writeError(c, fiber.StatusBadRequest, "CONTENT_IMMUTABLE", "document content cannot be edited")
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}

		doc, err := docSvc.UpdateMeta(c.UserContext(), id, patch)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

var errContentImmutable = errors.New("content is immutable")

// parsePatch reads {name?, memo?}. A null memo clears it; unknown keys are ignored.
func parsePatch(body []byte) (model.DocumentPatch, error) {
	var patch model.DocumentPatch
	if len(body) == 0 {
		return patch, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, err
	}
	if _, ok := raw["content"]; ok {
		return patch, errContentImmutable
	}

	field := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, err
		}
		if s == nil {
			s = new(string)
		}
		return s, nil
	}

	var err error
	if patch.Name, err = field("name"); err != nil {
		return patch, err
	}
	if patch.Memo, err = field("memo"); err != nil {
		return patch, err
	}
	return patch, nil
}

// DeleteDocument removes a document and its archived copy.
//
// @Summary  Delete a document
// @Tags     documents
// @Param    id path string true "document id (uuid)"
// @Success  204
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument redirects to a presigned archive URL. Otherwise it streams
// the archived object as an attachment, or the stored text when no archive is
// configured.
//
// @Summary  Download the uploaded file
// @Tags     documents
// @Param    id path string true "document id (uuid)"
// @Success  200 {string} string
// @Success  302
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents/{id}/download [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		d, err := docSvc.Download(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if d.URL != "" {
			return c.Redirect(d.URL, fiber.StatusFound)
		}

		c.Attachment(d.Filename)
		c.Set(fiber.HeaderContentType, d.ContentType)
		// fasthttp closes the body stream after writing it.
		return c.SendStream(d.Body, int(d.Size))
	}
}
