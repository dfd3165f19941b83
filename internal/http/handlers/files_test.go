package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediaforge/internal/middleware"
)

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestFilesUploadReturnsStorageURI(t *testing.T) {
	store := &fakeStorage{}
	app := newTestApp(&fakeMediaService{}, store)

	body, contentType := multipartBody(t, "file", map[string]string{"cat.png": "png-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/v1/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))

	rec := httptest.NewRecorder()
	app.FilesUpload(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp fileUploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.GcsURI, "gs://test-bucket/uploads/user-1/") {
		t.Fatalf("got uri %q, want user-scoped upload path", resp.GcsURI)
	}
	if !strings.HasSuffix(resp.GcsURI, ".png") {
		t.Fatalf("uri %q must keep the original extension", resp.GcsURI)
	}
	if resp.SignedURL == "" {
		t.Fatal("fresh uploads should carry a signed url")
	}
}

func TestFilesUploadMultipleStoresEveryFile(t *testing.T) {
	store := &fakeStorage{}
	app := newTestApp(&fakeMediaService{}, store)

	body, contentType := multipartBody(t, "files", map[string]string{
		"a.png": "first",
		"b.png": "second",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/files/upload-multiple", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))

	rec := httptest.NewRecorder()
	app.FilesUploadMultiple(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Files []fileUploadResponse `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("got %d uploads, want 2", len(resp.Files))
	}
	if len(store.objects) != 2 {
		t.Fatalf("got %d stored objects, want 2", len(store.objects))
	}
}

func TestFilesUploadMultipleRequiresFiles(t *testing.T) {
	app := newTestApp(&fakeMediaService{}, nil)

	body, contentType := multipartBody(t, "other", map[string]string{"a.png": "x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/files/upload-multiple", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))

	rec := httptest.NewRecorder()
	app.FilesUploadMultiple(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestFilesDownloadStreamsObject(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{
		"gs://test-bucket/uploads/user-1/cat.png": []byte("png-bytes"),
	}}
	app := newTestApp(&fakeMediaService{}, store)

	rec := httptest.NewRecorder()
	app.FilesDownload(rec, authedRequest(http.MethodGet,
		"/v1/files/download?gcsUri=gs://test-bucket/uploads/user-1/cat.png", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("got body %q, want stored bytes", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment" {
		t.Fatalf("got disposition %q, want attachment", got)
	}
}

func TestFilesDownloadValidatesURI(t *testing.T) {
	app := newTestApp(&fakeMediaService{}, nil)

	rec := httptest.NewRecorder()
	app.FilesDownload(rec, authedRequest(http.MethodGet,
		"/v1/files/download?gcsUri=https://example.com/file.png", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.FilesDownload(rec, authedRequest(http.MethodGet,
		"/v1/files/download?gcsUri=gs://test-bucket/missing.png", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestFilesSignedURL(t *testing.T) {
	app := newTestApp(&fakeMediaService{}, nil)

	rec := httptest.NewRecorder()
	app.FilesSignedURL(rec, authedRequest(http.MethodGet,
		"/v1/files/signed-url?gcsUri=gs://test-bucket/uploads/user-1/cat.png", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp["signed_url"], "https://signed.example.com/") {
		t.Fatalf("got %q, want signed url", resp["signed_url"])
	}

	rec = httptest.NewRecorder()
	app.FilesSignedURL(rec, authedRequest(http.MethodGet,
		"/v1/files/signed-url?gcsUri=not-a-uri", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}
