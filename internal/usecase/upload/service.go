package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	domain "portfolio/backend/internal/domain/upload"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxBytes is the per-file size ceiling (5 MiB).
const DefaultMaxBytes int64 = 5 << 20

const sniffLen = 512

// allowedExtensions is the image allow-list used for both upload and listing.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

// Manager runs the upload lifecycle against a Store.
type Manager struct {
	store     domain.Store
	urlPrefix string
	maxBytes  int64
	nowFunc   func() time.Time
	randFunc  func() int64
}

// NewManager constructs an upload manager. urlPrefix is joined with stored
// names to form public URLs.
func NewManager(store domain.Store, urlPrefix string, maxBytes int64) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Manager{
		store:     store,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
		nowFunc:   time.Now,
		randFunc:  func() int64 { return rand.Int64N(1_000_000_000) },
	}
}

// MaxBytes reports the configured size ceiling.
func (m *Manager) MaxBytes() int64 {
	return m.maxBytes
}

// UploadInput is one received file. Size is the declared length, or -1
// when unknown.
type UploadInput struct {
	OriginalName string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

// Upload validates the input and stores it under a generated name.
func (m *Manager) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	if input.Body == nil {
		return nil, domain.ErrMissingFile
	}
	if !isImageType(input.DeclaredType) {
		return nil, domain.ErrUnsupportedMediaType
	}
	if input.Size > m.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	original := baseName(input.OriginalName)
	ext := strings.ToLower(path.Ext(original))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedMediaType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, domain.ErrMissingFile
	}
	mimeType := http.DetectContentType(head)
	if !isImageType(mimeType) {
		return nil, domain.ErrUnsupportedMediaType
	}

	now := m.nowFunc()
	name := m.generateName(original, ext, now)

	written, err := m.store.Save(ctx, name, io.MultiReader(bytes.NewReader(head), input.Body), m.maxBytes)
	if err != nil {
		return nil, err
	}

	return &domain.File{
		Name:         name,
		OriginalName: original,
		URL:          m.URL(name),
		Size:         written,
		MimeType:     mimeType,
		CreatedAt:    now.UTC(),
		ModifiedAt:   now.UTC(),
	}, nil
}

// Delete removes a previously stored file by its generated name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	return m.store.Remove(ctx, name)
}

// List returns stored images newest first.
func (m *Manager) List(ctx context.Context) ([]domain.File, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]domain.File, 0, len(entries))
	for _, e := range entries {
		if _, ok := allowedExtensions[strings.ToLower(path.Ext(e.Name))]; !ok {
			continue
		}
		files = append(files, domain.File{
			Name:       e.Name,
			URL:        m.URL(e.Name),
			Size:       e.Size,
			CreatedAt:  createdAt(e),
			ModifiedAt: e.ModifiedAt.UTC(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Open returns a reader for a stored image.
func (m *Manager) Open(ctx context.Context, name string) (io.ReadSeekCloser, domain.Entry, error) {
	if err := ValidateFilename(name); err != nil {
		return nil, domain.Entry{}, err
	}
	if _, ok := allowedExtensions[strings.ToLower(path.Ext(name))]; !ok {
		return nil, domain.Entry{}, domain.ErrNotFound
	}
	return m.store.Open(ctx, name)
}

// URL derives the public URL of a stored name.
func (m *Manager) URL(name string) string {
	return m.urlPrefix + "/" + url.PathEscape(name)
}

// ValidateFilename rejects names that are empty, contain a path separator
// or a parent reference, or start with a dot.
func ValidateFilename(name string) error {
	switch {
	case name == "",
		strings.ContainsAny(name, "/\\\x00"),
		strings.Contains(name, ".."),
		strings.HasPrefix(name, "."):
		return domain.ErrInvalidFilename
	}
	return nil
}

// SanitizeBaseName maps name to [A-Za-z0-9.-_], folding accents first.
func SanitizeBaseName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))
	var last rune
	for _, r := range name {
		if !isSafeRune(r) {
			r = '_'
		}
		if (r == '_' || r == '.') && r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}

	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "file"
	}
	return out
}

func (m *Manager) generateName(original, ext string, now time.Time) string {
	base := SanitizeBaseName(strings.TrimSuffix(original, path.Ext(original)))
	return fmt.Sprintf("%d-%d-%s%s", now.UnixMilli(), m.randFunc(), base, ext)
}

// createdAt reads the epoch-millis prefix of a generated name, falling back
// to the modification time for files placed by other means.
func createdAt(e domain.Entry) time.Time {
	prefix, _, ok := strings.Cut(e.Name, "-")
	if ok {
		if ms, err := strconv.ParseInt(prefix, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return e.ModifiedAt.UTC()
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func isImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

func isSafeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '.' || r == '-'
}
