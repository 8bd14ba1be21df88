package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectKey(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	const id = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

	assert.Regexp(t, `^pdf-uploads/1717171717171-`+id+`-algebra\.pdf$`, NewObjectKey(PrefixPDF, "algebra.pdf", now))
	assert.Regexp(t, `^book-covers/1717171717171-`+id+`-my_cover\.jpg$`, NewObjectKey(PrefixCover, "C:\\tmp\\my cover.jpg", now))
	assert.Regexp(t, `^pdf-uploads/1717171717171-`+id+`-upload$`, NewObjectKey(PrefixPDF, "", now))
}

func TestNewObjectKeyUniqueWithinMillisecond(t *testing.T) {
	now := time.UnixMilli(1717171717171)

	assert.NotEqual(t, NewObjectKey(PrefixPDF, "algebra.pdf", now), NewObjectKey(PrefixPDF, "algebra.pdf", now))
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name                               string
		explicit, endpoint, region, bucket string
		useSSL                             bool
		want                               string
	}{
		{"explicit wins", "https://cdn.example.com/", "s3.amazonaws.com", "ap-south-1", "books", true, "https://cdn.example.com"},
		{"aws with region", "", "s3.amazonaws.com", "ap-south-1", "books", true, "https://books.s3.ap-south-1.amazonaws.com"},
		{"aws without region", "", "s3.amazonaws.com", "", "books", true, "https://books.s3.amazonaws.com"},
		{"minio path style", "", "localhost:9000", "", "books", false, "http://localhost:9000/books"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicBaseURL(tt.explicit, tt.endpoint, tt.region, tt.bucket, tt.useSSL))
		})
	}
}

func TestKeyFromURLRoundTrip(t *testing.T) {
	base := "https://books.s3.ap-south-1.amazonaws.com"
	key := "pdf-uploads/1717171717171-algebra+notes (1).pdf"

	got, err := KeyFromURL(base, "books", ObjectURL(base, key))
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestKeyFromURLForeignBase(t *testing.T) {
	t.Run("virtual hosted", func(t *testing.T) {
		got, err := KeyFromURL("http://localhost:9000/books", "books",
			"https://books.s3.us-east-1.amazonaws.com/book-covers/1-cover%20art.jpg")
		require.NoError(t, err)
		assert.Equal(t, "book-covers/1-cover art.jpg", got)
	})

	t.Run("path style", func(t *testing.T) {
		got, err := KeyFromURL("", "books", "http://minio:9000/books/pdf-uploads/1-a.pdf")
		require.NoError(t, err)
		assert.Equal(t, "pdf-uploads/1-a.pdf", got)
	})
}

func TestKeyFromURLInvalid(t *testing.T) {
	for _, raw := range []string{"", "https://books.s3.amazonaws.com/", "://bad"} {
		_, err := KeyFromURL("https://books.s3.amazonaws.com", "books", raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, IsNotFound(errors.New("connection refused")))
}
