// Package storage contains the object store abstraction for document binaries.
// Objects are addressed by key and exposed through public URLs; the catalog stores
// the URL and the key is derived back from it when the binary is needed.
package storage

import (
	"context"
	"io"
	"time"
)

// Key prefixes for the two binaries of a document.
const (
	PrefixPDF   = "pdf-uploads"
	PrefixCover = "book-covers"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key and returns its info including the public URL.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// KeyFromURL derives the object key from a URL previously returned by Put.
	KeyFromURL(rawURL string) (string, error)
}
