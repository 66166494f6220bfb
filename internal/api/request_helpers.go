package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

var errMissingFile = errors.New("file is required")

// Uploads saves multipart files to a local directory for tasks to consume.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// formFile returns the first of fields present in the multipart form.
func (u Uploads) formFile(w http.ResponseWriter, r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	for _, field := range fields {
		f, header, err := r.FormFile(field)
		if err == nil {
			return f, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, fmt.Errorf("failed to read form file %q: %w", field, err)
		}
	}
	return nil, nil, errMissingFile
}

// save copies src to a uniquely named file in u.Dir keeping the original extension.
func (u Uploads) save(src multipart.File, header *multipart.FileHeader) (task.Upload, error) {
	if err := os.MkdirAll(u.Dir, 0o750); err != nil {
		return task.Upload{}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(u.Dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return task.Upload{}, fmt.Errorf("failed to create upload file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = domain.ErrEmptyContent
	}
	if err != nil {
		_ = os.Remove(path)
		return task.Upload{}, fmt.Errorf("failed to save upload: %w", err)
	}

	return task.Upload{
		Path:        path,
		Filename:    filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// respondUploadError writes 413 for oversize bodies and 400 otherwise.
func respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Uploaded file is too large", err)
	case errors.Is(err, errMissingFile):
		shared.RespondWithError(w, r, http.StatusBadRequest, "A file upload is required")
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart upload", err)
	}
}

// resolveContextID validates raw, or derives the caller's default partition
// from the authenticated API key when raw is empty.
func resolveContextID(r *http.Request, raw string) (domain.ContextID, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		return domain.NewContextID(raw)
	}
	key, ok := shared.APIKeyFromContext(r.Context())
	if !ok {
		return "", fmt.Errorf("%w: no context_id and no authenticated key", domain.ErrInvalidContextID)
	}
	return domain.DefaultContextID(key.Prefix), nil
}

// taskIDParam returns the {task_id} path parameter.
func taskIDParam(r *http.Request) string {
	return chi.URLParam(r, "task_id")
}
