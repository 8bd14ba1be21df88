package storage

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidURL is returned when an object URL cannot be mapped back to a key.
var ErrInvalidURL = errors.New("invalid object url")

// NewObjectKey builds a unique time-based key such as
// "pdf-uploads/1717171717171-<uuid>-algebra.pdf". The random part keeps two uploads
// of the same name in the same millisecond apart. Only the base name of the
// original filename is kept and spaces are replaced.
func NewObjectKey(prefix, filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s/%d-%s-%s", prefix, now.UnixMilli(), uuid.NewString(), name)
}

// PublicBaseURL returns the URL prefix objects of bucket are reachable under.
// Without an explicit base, AWS endpoints get virtual-hosted style
// (https://bucket.s3.region.amazonaws.com) and others path style (scheme://endpoint/bucket).
func PublicBaseURL(explicit, endpoint, region, bucket string, useSSL bool) string {
	if explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	if strings.HasSuffix(endpoint, "amazonaws.com") {
		if region != "" {
			return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
		return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
}

// ObjectURL joins base and key, escaping each key segment.
func ObjectURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segs, "/")
}

// KeyFromURL maps rawURL back to a key. When rawURL starts with base the
// remainder is used; otherwise the URL path (minus a leading bucket segment
// for path-style URLs) is taken as the key.
func KeyFromURL(base, bucket, rawURL string) (string, error) {
	if rawURL == "" {
		return "", ErrInvalidURL
	}
	var escaped string
	if base != "" && strings.HasPrefix(rawURL, base+"/") {
		escaped = strings.TrimPrefix(rawURL, base+"/")
	} else {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		escaped = strings.TrimPrefix(u.EscapedPath(), "/")
		if bucket != "" && !strings.HasPrefix(u.Host, bucket+".") {
			escaped = strings.TrimPrefix(escaped, bucket+"/")
		}
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if key == "" {
		return "", ErrInvalidURL
	}
	return key, nil
}
