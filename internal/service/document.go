package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"openshelf/internal/apperr"
	"openshelf/internal/cache"
	"openshelf/internal/model"
	"openshelf/internal/repository"
	"openshelf/internal/storage"
)

const (
	pdfContentType   = "application/pdf"
	coverFallbackCT  = "image/jpeg"
	sniffHeaderBytes = 3072
)

// UploadInput is a new document with both of its binaries.
type UploadInput struct {
	Title    string
	Category string
	PDF      *model.FilePart
	Cover    *model.FilePart
	Owner    model.UserID
}

// UpdateInput carries optional scalar changes and optional replacement binaries.
type UpdateInput struct {
	Fields model.DocumentUpdate
	PDF    *model.FilePart
	Cover  *model.FilePart
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores both binaries, saves the record and drops the cached list.
	// Stored objects are removed again if the record cannot be saved.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns the whole catalog through the list cache.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document through the detail cache.
	Get(ctx context.Context, id string) (*model.Document, error)

	// GetPDFBytes returns the full PDF payload through the pdf cache.
	GetPDFBytes(ctx context.Context, id string) ([]byte, error)

	// GetCoverBytes returns the cover image and its sniffed content type through the cover cache.
	GetCoverBytes(ctx context.Context, id string) ([]byte, string, error)

	// Update applies changes on behalf of the owner.
	Update(ctx context.Context, id string, caller model.UserID, in UpdateInput) (*model.Document, error)

	// Delete removes the record on behalf of the owner and invalidates every cached copy.
	Delete(ctx context.Context, id string, caller model.UserID) error

	// ListPurchased returns documents whose paid set contains uid. Not cached.
	ListPurchased(ctx context.Context, uid model.UserID) ([]model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewDocumentService constructs a new DocumentService. A nil cache disables caching.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, c cache.Cache, ttl time.Duration, log *slog.Logger) DocumentService {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &documentService{
		store: store,
		repo:  repo,
		cache: c,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	defer closeParts(s.log, in.PDF, in.Cover)
	if in.PDF == nil || in.Cover == nil {
		return nil, apperr.Validation("Missing file or image")
	}

	ctx, span := tracer.Start(ctx, "documents.Upload")
	defer span.End()

	now := s.now()
	pdfInfo, err := s.putPDF(ctx, in.PDF, now)
	if err != nil {
		return nil, err
	}
	coverInfo, err := s.putCover(ctx, in.Cover, now)
	if err != nil {
		s.removeKeys(ctx, pdfInfo.Key)
		return nil, err
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Category:  in.Category,
		PdfURL:    pdfInfo.URL,
		CoverURL:  coverInfo.URL,
		Owner:     in.Owner,
		PaidUsers: []model.UserID{},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		s.removeKeys(ctx, pdfInfo.Key, coverInfo.Key)
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.cache.Delete(ctx, cache.ListKey())
	return stored, nil
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if cache.GetJSON(ctx, s.cache, cache.ListKey(), &docs) {
		return docs, nil
	}
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, cache.ListKey(), docs, s.ttl)
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if !validID(id) {
		return nil, apperr.NotFound("Not found")
	}
	var doc model.Document
	if cache.GetJSON(ctx, s.cache, cache.DetailKey(id), &doc) {
		return &doc, nil
	}
	found, err := s.find(ctx, id, "Not found")
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, cache.DetailKey(id), found, s.ttl)
	return found, nil
}

func (s *documentService) GetPDFBytes(ctx context.Context, id string) ([]byte, error) {
	if !validID(id) {
		return nil, apperr.NotFound("PDF not found")
	}
	if data, ok := cache.GetBytes(ctx, s.cache, cache.PDFKey(id)); ok {
		return data, nil
	}
	doc, err := s.find(ctx, id, "PDF not found")
	if err != nil {
		return nil, err
	}
	data, err := s.readObject(ctx, doc.PdfURL, "PDF not found")
	if err != nil {
		return nil, err
	}
	cache.SetBytes(ctx, s.cache, cache.PDFKey(id), data, s.ttl)
	return data, nil
}

func (s *documentService) GetCoverBytes(ctx context.Context, id string) ([]byte, string, error) {
	if !validID(id) {
		return nil, "", apperr.NotFound("Cover not found")
	}
	if data, ok := cache.GetBytes(ctx, s.cache, cache.CoverKey(id)); ok {
		return data, mimetype.Detect(data).String(), nil
	}
	doc, err := s.find(ctx, id, "Cover not found")
	if err != nil {
		return nil, "", err
	}
	data, err := s.readObject(ctx, doc.CoverURL, "Cover not found")
	if err != nil {
		return nil, "", err
	}
	cache.SetBytes(ctx, s.cache, cache.CoverKey(id), data, s.ttl)
	return data, mimetype.Detect(data).String(), nil
}

func (s *documentService) Update(ctx context.Context, id string, caller model.UserID, in UpdateInput) (*model.Document, error) {
	defer closeParts(s.log, in.PDF, in.Cover)

	doc, err := s.find(ctx, id, "Not found")
	if err != nil {
		return nil, err
	}
	if !doc.OwnedBy(caller) {
		return nil, apperr.Forbidden("Forbidden")
	}

	if in.Fields.Title != "" {
		doc.Title = in.Fields.Title
	}
	if in.Fields.Category != "" {
		doc.Category = in.Fields.Category
	}

	now := s.now()
	stale := []string{cache.ListKey(), cache.DetailKey(id)}
	var uploaded, replaced []string

	if in.PDF != nil {
		info, err := s.putPDF(ctx, in.PDF, now)
		if err != nil {
			return nil, err
		}
		if doc.PdfURL != info.URL {
			uploaded = append(uploaded, info.Key)
			replaced = append(replaced, doc.PdfURL)
		}
		doc.PdfURL = info.URL
		stale = append(stale, cache.PDFKey(id))
	}
	if in.Cover != nil {
		info, err := s.putCover(ctx, in.Cover, now)
		if err != nil {
			s.removeKeys(ctx, uploaded...)
			return nil, err
		}
		if doc.CoverURL != info.URL {
			uploaded = append(uploaded, info.Key)
			replaced = append(replaced, doc.CoverURL)
		}
		doc.CoverURL = info.URL
		stale = append(stale, cache.CoverKey(id))
	}

	doc.UpdatedAt = now.UTC()
	updated, err := s.repo.Update(ctx, doc)
	if err != nil {
		s.removeKeys(ctx, uploaded...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Not found")
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}

	s.cache.Delete(ctx, stale...)
	s.removeURLs(ctx, replaced...)
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, id string, caller model.UserID) error {
	doc, err := s.find(ctx, id, "Not found")
	if err != nil {
		return err
	}
	if !doc.OwnedBy(caller) {
		return apperr.Forbidden("Forbidden")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, append([]string{cache.ListKey()}, cache.DocumentKeys(id)...)...)
	s.removeURLs(ctx, doc.PdfURL, doc.CoverURL)
	return nil
}

func (s *documentService) ListPurchased(ctx context.Context, uid model.UserID) ([]model.Document, error) {
	return s.repo.ListPaidBy(ctx, uid)
}

// find loads a document, mapping a missing row or a malformed id to NotFound.
func (s *documentService) find(ctx context.Context, id, notFoundMsg string) (*model.Document, error) {
	return findDocument(ctx, s.repo, id, notFoundMsg)
}

func findDocument(ctx context.Context, repo repository.DocumentRepository, id, notFoundMsg string) (*model.Document, error) {
	if !validID(id) {
		return nil, apperr.NotFound(notFoundMsg)
	}
	doc, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(notFoundMsg)
		}
		return nil, err
	}
	return doc, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *documentService) putPDF(ctx context.Context, part *model.FilePart, now time.Time) (storage.ObjectInfo, error) {
	key := storage.NewObjectKey(storage.PrefixPDF, part.Filename, now)
	info, err := s.store.Put(ctx, key, part.Body, storage.PutObjectOptions{
		Size:        partSize(part),
		ContentType: pdfContentType,
		Metadata:    map[string]string{"original-filename": part.Filename},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload pdf to storage: %w", err)
	}
	return info, nil
}

func (s *documentService) putCover(ctx context.Context, part *model.FilePart, now time.Time) (storage.ObjectInfo, error) {
	key := storage.NewObjectKey(storage.PrefixCover, part.Filename, now)
	body, contentType, err := coverBody(part)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("read cover: %w", err)
	}
	info, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        partSize(part),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": part.Filename},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload cover to storage: %w", err)
	}
	return info, nil
}

// coverBody returns a reader over the whole part plus its content type.
// The declared type wins unless it is missing or generic, in which case the
// leading bytes are sniffed.
func coverBody(part *model.FilePart) (io.Reader, string, error) {
	ct := part.ContentType
	if ct != "" && ct != "application/octet-stream" {
		return part.Body, ct, nil
	}
	head := make([]byte, sniffHeaderBytes)
	n, err := io.ReadFull(part.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	ct = mimetype.Detect(head).String()
	if n == 0 || ct == "application/octet-stream" {
		ct = coverFallbackCT
	}
	return io.MultiReader(bytes.NewReader(head), part.Body), ct, nil
}

func partSize(part *model.FilePart) int64 {
	if part.Size > 0 {
		return part.Size
	}
	return -1
}

// readObject buffers the object behind rawURL completely.
func (s *documentService) readObject(ctx context.Context, rawURL, notFoundMsg string) ([]byte, error) {
	if rawURL == "" {
		return nil, apperr.NotFound(notFoundMsg)
	}
	key, err := s.store.KeyFromURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolve object key: %w", err)
	}
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, apperr.NotFound(notFoundMsg)
		}
		return nil, fmt.Errorf("fetch object: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// removeKeys deletes objects best-effort.
func (s *documentService) removeKeys(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn("object removal failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// removeURLs deletes the objects behind catalog URLs best-effort.
func (s *documentService) removeURLs(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		key, err := s.store.KeyFromURL(u)
		if err != nil {
			s.log.Warn("object url not resolvable", slog.String("url", u), slog.String("error", err.Error()))
			continue
		}
		s.removeKeys(ctx, key)
	}
}

// closeParts releases upload bodies. Failures only get logged.
func closeParts(log *slog.Logger, parts ...*model.FilePart) {
	for _, p := range parts {
		if p == nil || p.Body == nil {
			continue
		}
		if err := p.Body.Close(); err != nil {
			log.Warn("upload part cleanup failed", slog.String("filename", p.Filename), slog.String("error", err.Error()))
		}
	}
}
