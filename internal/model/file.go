package model

import "io"

// FilePart is one uploaded binary (the PDF or the cover image).
// Body is closed by the consumer once the payload has been stored.
type FilePart struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}
