package api

import (
	"io"
	"net/http"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/service"
)

// ImageHandler serves /v1/image.
type ImageHandler struct {
	images  service.ImageService
	uploads Uploads
}

// NewImageHandler creates an ImageHandler. Only uploads.MaxBytes is used;
// images are described from memory and never written to disk.
func NewImageHandler(images service.ImageService, uploads Uploads) *ImageHandler {
	return &ImageHandler{images: images, uploads: uploads}
}

// DescribeImage handles POST /v1/image/describe_image.
func (h *ImageHandler) DescribeImage(w http.ResponseWriter, r *http.Request) {
	src, header, err := h.uploads.formFile(w, r, "file")
	if err != nil {
		respondUploadError(w, r, err)
		return
	}
	defer func() { _ = src.Close() }()

	contentType := header.Header.Get("Content-Type")
	if err := domain.DescribableImageTypes.Check(contentType); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid file type. Only JPEG and PNG are accepted.")
		return
	}

	image, err := io.ReadAll(src)
	if err != nil {
		respondUploadError(w, r, err)
		return
	}

	desc, err := h.images.Describe(r.Context(), image, contentType)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, desc)
}
