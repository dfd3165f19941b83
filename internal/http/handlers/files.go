package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"

	"mediaforge/internal/storage"
)

// maxUploadBytes caps multipart uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// maxUploadFiles caps how many files one multi-upload request may carry.
const maxUploadFiles = 10

type fileUploadResponse struct {
	GcsURI    string `json:"gcs_uri"`
	SignedURL string `json:"signed_url,omitempty"`
}

// FilesUpload stores a user-provided file in the bucket and returns its
// storage-native identifier, ready to feed into the upscale endpoint.
func (a *App) FilesUpload(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()

	resp, err := a.storeUpload(r, userID, file, header)
	if err != nil {
		a.error(w, http.StatusBadGateway, "storage_failure", "failed to store file")
		return
	}
	a.json(w, http.StatusCreated, resp)
}

// FilesUploadMultiple stores up to maxUploadFiles files from the "files"
// multipart field. The whole batch fails on the first storage error rather
// than returning a partial listing.
func (a *App) FilesUploadMultiple(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "files field required")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) > maxUploadFiles {
		a.error(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("at most %d files per request", maxUploadFiles))
		return
	}

	uploads := make([]fileUploadResponse, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "failed to read file")
			return
		}
		resp, err := a.storeUpload(r, userID, file, header)
		file.Close()
		if err != nil {
			a.error(w, http.StatusBadGateway, "storage_failure", "failed to store file")
			return
		}
		uploads = append(uploads, resp)
	}
	a.json(w, http.StatusCreated, map[string]any{"files": uploads})
}

// FilesDownload streams the object behind a storage-native identifier.
func (a *App) FilesDownload(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("gcsUri")
	if !storage.IsStorageURI(uri) {
		a.error(w, http.StatusBadRequest, "bad_request", "gcsUri query parameter must be a gs:// uri")
		return
	}
	data, err := a.Storage.Download(r.Context(), uri)
	if err != nil {
		a.Logger.Error().Err(err).Str("uri", uri).Msg("handlers: download failed")
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Disposition", "attachment")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// FilesSignedURL mints a time-limited URL for a stored object without
// downloading it through the API.
func (a *App) FilesSignedURL(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("gcsUri")
	if !storage.IsStorageURI(uri) {
		a.error(w, http.StatusBadRequest, "bad_request", "gcsUri query parameter must be a gs:// uri")
		return
	}
	signed, err := a.Storage.SignedURL(r.Context(), uri)
	if err != nil {
		a.Logger.Error().Err(err).Str("uri", uri).Msg("handlers: sign file failed")
		a.error(w, http.StatusBadGateway, "signing_failure", "failed to sign file url")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"signed_url": signed})
}

// storeUpload writes one multipart file to the bucket. Signing the fresh
// object is best-effort; the storage identifier is the durable reference.
func (a *App) storeUpload(r *http.Request, userID string, file multipart.File, header *multipart.FileHeader) (fileUploadResponse, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return fileUploadResponse{}, fmt.Errorf("read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	object := fmt.Sprintf("uploads/%s/%s%s", userID, uuid.NewString(), path.Ext(header.Filename))

	uri, err := a.Storage.Upload(r.Context(), object, contentType, data)
	if err != nil {
		a.Logger.Error().Err(err).Str("object", object).Msg("handlers: upload failed")
		return fileUploadResponse{}, err
	}

	resp := fileUploadResponse{GcsURI: uri}
	if signed, err := a.Storage.SignedURL(r.Context(), uri); err == nil {
		resp.SignedURL = signed
	} else {
		a.Logger.Error().Err(err).Str("uri", uri).Msg("handlers: sign uploaded file failed")
	}
	return resp, nil
}
