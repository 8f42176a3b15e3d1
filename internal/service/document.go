package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"qdadoc/internal/cache"
	"qdadoc/internal/database"
	"qdadoc/internal/logging"
	"qdadoc/internal/model"
	"qdadoc/internal/repository"
	"qdadoc/internal/storage"
	"qdadoc/internal/viewer"
)

var (
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("document not found")
	ErrReaderNil          = errors.New("reader is nil")
	ErrEmptyContent       = errors.New("file is empty")
	ErrTooLarge           = errors.New("file exceeds upload limit")
	ErrNotText            = errors.New("file is not plain text")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrNothingToUpdate    = errors.New("nothing to update")
	ErrInvalidName        = errors.New("name must not be empty")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

const (
	DefaultMaxUploadBytes = 5 << 20
	DefaultListLimit      = 10
	MaxListLimit          = 100

	maxNameBytes    = 255
	defaultName     = "untitled.txt"
	textContentType = "text/plain; charset=utf-8"
	presignExpiry   = 15 * time.Minute
)

// UploadRequest carries the metadata that accompanies an uploaded file.
type UploadRequest struct {
	Filename string
	Owner    string
	Memo     string
}

// Download tells the caller how to deliver a document's bytes. Either URL is
// set and the client should be redirected, or Body holds the bytes and must be
// closed by the caller.
type Download struct {
	URL         string
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.DocumentSummary `json:"data"`
	Total int                     `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates r as plain text and stores it as a new document.
	// With an archive configured the raw bytes are mirrored there first and
	// removed again if the database write fails.
	Upload(ctx context.Context, r io.Reader, req UploadRequest) (*model.Document, error)

	// List returns document summaries using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document, content included.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Select returns the span [start, end) of a document's text in code points.
	// The document is not modified.
	Select(ctx context.Context, id string, start, end int) (*model.Selection, error)

	// UpdateMeta edits name and/or memo. Content cannot be changed.
	UpdateMeta(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes a document from the archive (if any) and the repository.
	Delete(ctx context.Context, id string) error

	// Download prefers a presigned archive URL. Without one it opens the
	// archived object, and without an archive it serves the stored text.
	Download(ctx context.Context, id string) (*Download, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo     repository.DocumentRepository
	archive  storage.Storage
	cache    cache.DocumentCache
	metrics  *Metrics
	log      *logging.Logger
	maxBytes int64
	presign  bool
	now      func() time.Time
}

// Option configures a DocumentService.
type Option func(*documentService)

// WithArchive mirrors uploads to object storage.
func WithArchive(s storage.Storage) Option {
	return func(d *documentService) { d.archive = s }
}

// WithPresignedDownloads controls whether Download hands out presigned URLs
// or streams archived objects through the API. It is on by default.
func WithPresignedDownloads(on bool) Option {
	return func(d *documentService) { d.presign = on }
}

// WithCache enables read-through caching of documents.
func WithCache(c cache.DocumentCache) Option {
	return func(d *documentService) {
		if c != nil {
			d.cache = c
		}
	}
}

// WithMaxUploadBytes bounds the accepted upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(d *documentService) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *documentService) { d.metrics = m }
}

func WithLogger(l *logging.Logger) Option {
	return func(d *documentService) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		repo:     repo,
		cache:    cache.Noop{},
		log:      logging.Default(),
		maxBytes: DefaultMaxUploadBytes,
		presign:  true,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, req UploadRequest) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		s.metrics.upload(uploadFailed)
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := validateText(data, s.maxBytes); err != nil {
		s.metrics.upload(uploadRejected)
		return nil, err
	}

	now := s.now()
	doc := &model.Document{
		ID:         uuid.New().String(),
		Name:       cleanName(req.Filename),
		Content:    string(data),
		Size:       int64(len(data)),
		Owner:      truncate(strings.TrimSpace(req.Owner), 100),
		Memo:       strings.TrimSpace(req.Memo),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	var key string
	if s.archive != nil {
		key = storage.DocumentKey(doc.ID)
		if _, err := s.archive.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
			Size:        doc.Size,
			ContentType: textContentType,
			Metadata: map[string]string{
				"original-filename": doc.Name,
			},
		}); err != nil {
			s.metrics.upload(uploadFailed)
			return nil, fmt.Errorf("upload to archive: %w", err)
		}
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		s.metrics.upload(uploadFailed)
		err = classify(err)
		if key != "" {
			// Rollback: delete the object from the archive
			if delErr := s.archive.Delete(ctx, key); delErr != nil {
				return nil, fmt.Errorf("db save failed: %w; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.metrics.upload(uploadStored)
	s.cacheSet(ctx, stored)
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, classify(err)
	}
	for i := range res.Items {
		res.Items[i].SizeHuman = humanize.IBytes(uint64(res.Items[i].Size))
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID, consulting the cache first.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	if doc, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn("cache_get_failed", map[string]any{"component": "cache", "document_id": id, "error": err.Error()})
	} else if ok {
		return doc, nil
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	s.cacheSet(ctx, doc)
	return doc, nil
}

func (s *documentService) Select(ctx context.Context, id string, start, end int) (*model.Selection, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := viewer.Span(doc.Content, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return &model.Selection{
		DocumentID: doc.ID,
		Start:      start,
		End:        end,
		Length:     end - start,
		Text:       text,
	}, nil
}

func (s *documentService) UpdateMeta(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		name = cleanName(name)
		patch.Name = &name
	}
	if patch.Memo != nil {
		memo := strings.TrimSpace(*patch.Memo)
		patch.Memo = &memo
	}
	patch.ModifiedAt = s.now()

	doc, err := s.repo.UpdateMeta(ctx, id, patch)
	if err != nil {
		return nil, classify(err)
	}
	s.cacheDelete(ctx, id)
	return doc, nil
}

// Delete removes a document from the archive first, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return classify(err)
	}
	// If the archive delete fails the row stays, so the document is still reachable.
	if s.archive != nil {
		if err := s.archive.Delete(ctx, storage.DocumentKey(id)); err != nil {
			return fmt.Errorf("delete archive: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return classify(err)
	}
	s.cacheDelete(ctx, id)
	return nil
}

func (s *documentService) Download(ctx context.Context, id string) (*Download, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return &Download{
			Body:        io.NopCloser(strings.NewReader(doc.Content)),
			Size:        doc.Size,
			ContentType: textContentType,
			Filename:    doc.Name,
		}, nil
	}

	key := storage.DocumentKey(id)
	if s.presign {
		u, err := s.archive.PresignGet(ctx, key, presignExpiry)
		if err == nil {
			return &Download{URL: u, Filename: doc.Name}, nil
		}
		s.log.Warn("presign_failed", map[string]any{"component": "storage", "document_id": id, "error": err.Error()})
	}

	rc, info, err := s.archive.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	ct := info.ContentType
	if ct == "" {
		ct = textContentType
	}
	return &Download{
		Body:        rc,
		Size:        info.Size,
		ContentType: ct,
		Filename:    doc.Name,
	}, nil
}

func (s *documentService) cacheSet(ctx context.Context, doc *model.Document) {
	if err := s.cache.Set(ctx, doc); err != nil {
		s.log.Warn("cache_set_failed", map[string]any{"component": "cache", "document_id": doc.ID, "error": err.Error()})
	}
}

func (s *documentService) cacheDelete(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("cache_delete_failed", map[string]any{"component": "cache", "document_id": id, "error": err.Error()})
	}
}

// classify maps repository errors onto service errors.
func classify(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case database.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	default:
		return err
	}
}

// validateText accepts non-empty UTF-8 without NUL bytes, up to max bytes.
func validateText(data []byte, max int64) error {
	switch {
	case int64(len(data)) > max:
		return ErrTooLarge
	case len(data) == 0:
		return ErrEmptyContent
	case !utf8.Valid(data), bytes.IndexByte(data, 0) >= 0:
		return ErrNotText
	}
	return nil
}

// cleanName keeps only the base name of an uploaded path, including
// Windows-style paths sent by some browsers.
func cleanName(name string) string {
	name = strings.ToValidUTF8(name, "_")
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return defaultName
	}
	return truncate(name, maxNameBytes)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
