package upload

import (
	"errors"
	"time"
)

var (
	// ErrInvalidFilename rejects names that could escape the upload root.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrFileTooLarge indicates the payload exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedMediaType indicates a non-image payload.
	ErrUnsupportedMediaType = errors.New("only image files are allowed")
	// ErrMissingFile indicates the multipart request carried no image field.
	ErrMissingFile = errors.New("no file uploaded")
	// ErrTooManyFiles indicates more than one file in a single request.
	ErrTooManyFiles = errors.New("only one file may be uploaded per request")
	// ErrNotFound indicates the named file does not exist.
	ErrNotFound = errors.New("file not found")
)

// File describes a stored upload. Name is the server-generated identity.
type File struct {
	Name         string
	OriginalName string
	URL          string
	Size         int64
	MimeType     string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// Entry is what a Store reports for a file on disk.
type Entry struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}
