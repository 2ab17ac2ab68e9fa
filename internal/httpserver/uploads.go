package httpserver

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "portfolio/backend/internal/domain/upload"
	uploadusecase "portfolio/backend/internal/usecase/upload"

	"github.com/go-chi/chi/v5"
)

const imageField = "image"

type imageResponse struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+uploadOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.writeUploadError(w, domain.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	header, err := singleImage(r.MultipartForm)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		s.logger.Error("open multipart file", "error", err)
		writeInternalError(w)
		return
	}
	defer f.Close()

	stored, err := s.uploads.Upload(r.Context(), uploadusecase.UploadInput{
		OriginalName: header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         f,
	})
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	s.audit.log(AuditUploadStored, r,
		slog.String("filename", stored.Name),
		slog.Int64("size", stored.Size),
		slog.String("mime_type", stored.MimeType),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"url":          stored.URL,
		"filename":     stored.Name,
		"originalName": stored.OriginalName,
		"size":         stored.Size,
	})
}

// singleImage returns the one file in the form, which must be under the
// image field.
func singleImage(form *multipart.Form) (*multipart.FileHeader, error) {
	total := 0
	for _, headers := range form.File {
		total += len(headers)
	}
	if total > 1 {
		return nil, domain.ErrTooManyFiles
	}
	headers := form.File[imageField]
	if len(headers) == 0 {
		return nil, domain.ErrMissingFile
	}
	return headers[0], nil
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	files, err := s.uploads.List(r.Context())
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	images := make([]imageResponse, 0, len(files))
	for _, f := range files {
		images = append(images, imageResponse{
			Filename:   f.Name,
			URL:        f.URL,
			Size:       f.Size,
			CreatedAt:  f.CreatedAt,
			ModifiedAt: f.ModifiedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		s.writeUploadError(w, domain.ErrInvalidFilename)
		return
	}

	if err := s.uploads.Delete(r.Context(), name); err != nil {
		s.writeUploadError(w, err)
		return
	}

	s.audit.log(AuditUploadDeleted, r, slog.String("filename", name))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "File deleted successfully",
	})
}

func (s *Server) handleInvalidFilename(w http.ResponseWriter, r *http.Request) {
	s.writeUploadError(w, domain.ErrInvalidFilename)
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rc, entry, err := s.uploads.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidFilename) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("open upload", "error", err)
		writeInternalError(w)
		return
	}
	defer rc.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, entry.Name, entry.ModifiedAt, rc)
}

func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "Invalid filename")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "File too large")
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, domain.ErrMissingFile):
		writeError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, domain.ErrTooManyFiles):
		writeError(w, http.StatusBadRequest, "Only one file may be uploaded per request")
	default:
		s.logger.Error("upload operation failed", "error", err)
		writeInternalError(w)
	}
}
