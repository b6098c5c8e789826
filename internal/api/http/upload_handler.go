package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/service"
	"equiprent-backend/internal/storage"

	"github.com/gorilla/mux"
)

// multipartOverhead covers form boundaries and the purpose field.
const multipartOverhead = 1 << 16

type UploadHandler struct {
	uploads  service.UploadService
	store    storage.StorageInterface
	maxBytes int64
}

func NewUploadHandler(uploads service.UploadService, store storage.StorageInterface, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, store: store, maxBytes: maxBytes}
}

// Upload accepts a multipart form with a "file" part and a "purpose" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, domain.BadRequest("file exceeds the maximum size of %d bytes", h.maxBytes))
			return
		}
		respond.Error(w, r, domain.BadRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, domain.BadRequest("file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(header.Filename))
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	up, err := h.uploads.Upload(r.Context(), currentUser(r), service.UploadInput{
		Purpose:     domain.UploadPurpose(strings.ToUpper(r.FormValue("purpose"))),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, up)
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	up, err := h.uploads.Get(r.Context(), currentUser(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, up)
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.uploads.Delete(r.Context(), currentUser(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Download streams a file from the local storage backend. Object storage
// hands out presigned URLs instead.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	rc, err := h.store.ReadFile(r.Context(), key)
	if err != nil {
		respond.Message(w, http.StatusNotFound, "file not found")
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("File download interrupted", "key", key, "error", err)
	}
}
