package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"openshelf/internal/model"
	"openshelf/internal/storage"
)

const (
	testBucket  = "books"
	testBaseURL = "https://books.s3.ap-south-1.amazonaws.com"
)

// memRepo is an in-memory DocumentRepository.
type memRepo struct {
	mu        sync.Mutex
	docs      map[string]model.Document
	order     []string
	listCalls int
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]model.Document{}}
}

func cloneDoc(d model.Document) model.Document {
	d.PaidUsers = append([]model.UserID{}, d.PaidUsers...)
	return d
}

func (r *memRepo) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.docs[doc.ID] = cloneDoc(*doc)
	r.order = append(r.order, doc.ID)
	out := cloneDoc(*doc)
	return &out, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneDoc(d)
	return &out, nil
}

func (r *memRepo) List(context.Context) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]model.Document, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if d, ok := r.docs[r.order[i]]; ok {
			out = append(out, cloneDoc(d))
		}
	}
	return out, nil
}

func (r *memRepo) ListPaidBy(_ context.Context, uid model.UserID) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Document, 0)
	for _, id := range r.order {
		if d, ok := r.docs[id]; ok && d.HasPaid(uid) {
			out = append(out, cloneDoc(d))
		}
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[doc.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cur.Title, cur.Category = doc.Title, doc.Category
	cur.PdfURL, cur.CoverURL = doc.PdfURL, doc.CoverURL
	cur.UpdatedAt = doc.UpdatedAt
	r.docs[doc.ID] = cur
	out := cloneDoc(cur)
	return &out, nil
}

func (r *memRepo) AddPaidUser(_ context.Context, id string, uid model.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return false, nil
	}
	if d.HasPaid(uid) {
		return false, nil
	}
	d.PaidUsers = append(d.PaidUsers, uid)
	r.docs[id] = d
	return true, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

// memStore is an in-memory Storage publishing virtual-hosted S3 URLs.
type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	types      map[string]string
	deleted    []string
	failPrefix string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	if s.failPrefix != "" && strings.HasPrefix(key, s.failPrefix) {
		return storage.ObjectInfo{}, errors.New("storage fail")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = opt.ContentType
	return storage.ObjectInfo{
		Key:         key,
		URL:         storage.ObjectURL(testBaseURL, key),
		Size:        int64(len(data)),
		ContentType: opt.ContentType,
	}, nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStore) KeyFromURL(rawURL string) (string, error) {
	return storage.KeyFromURL(testBaseURL, testBucket, rawURL)
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

// trackedBody records whether the consumer closed it.
type trackedBody struct {
	io.Reader
	closed   bool
	closeErr error
}

func (b *trackedBody) Close() error {
	b.closed = true
	return b.closeErr
}

func filePart(name, contentType string, data []byte) *model.FilePart {
	return &model.FilePart{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        &trackedBody{Reader: bytes.NewReader(data)},
	}
}

func closed(p *model.FilePart) bool {
	return p.Body.(*trackedBody).closed
}
