package vertex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Options{
		ProjectID:    "test-project",
		Location:     "us-central1",
		ImagenModel:  "imagen-3.0-generate-002",
		VeoModel:     "veo-2.0-generate-001",
		UpscaleModel: "imagegeneration@002",
		LyriaModel:   "lyria-base-001",
		StorageURI:   "gs://gen-bucket/out",
		BaseURL:      srv.URL,
		TTSBaseURL:   srv.URL,
		HTTPClient:   srv.Client(),
		TokenSource:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateImageDecodesPredictions(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(PredictionResponse{Predictions: []Prediction{
			{GcsURI: "gs://gen-bucket/sample_0.png", MimeType: "image/png"},
			{GcsURI: "gs://gen-bucket/sample_1.png", MimeType: "image/png"},
		}})
	})

	resp, err := client.GenerateImage(context.Background(), ImageParams{Prompt: "a sunset", SampleCount: 2})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if len(resp.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(resp.Predictions))
	}
	if !strings.HasSuffix(gotPath, "models/imagen-3.0-generate-002:predict") {
		t.Fatalf("path = %q, want imagen predict endpoint", gotPath)
	}
	params, _ := gotBody["parameters"].(map[string]any)
	if params["storageUri"] != "gs://gen-bucket/out" {
		t.Fatalf("storageUri = %v, want configured default", params["storageUri"])
	}
}

func TestInitiateVideoGenerationReturnsOperationName(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			t.Errorf("path = %q, want predictLongRunning", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Operation{Name: "operations/op-123"})
	})

	name, err := client.InitiateVideoGeneration(context.Background(), VideoParams{Prompt: "waves"})
	if err != nil {
		t.Fatalf("InitiateVideoGeneration: %v", err)
	}
	if name != "operations/op-123" {
		t.Fatalf("operation name = %q, want operations/op-123", name)
	}
}

func TestInitiateVideoGenerationRequiresOperationName(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Operation{})
	})

	if _, err := client.InitiateVideoGeneration(context.Background(), VideoParams{Prompt: "waves"}); err == nil {
		t.Fatalf("expected error when operation name missing")
	}
}

func TestCheckOperationStatusCarriesError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req fetchOperationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.OperationName != "operations/op-7" {
			t.Errorf("operationName = %q, want operations/op-7", req.OperationName)
		}
		_ = json.NewEncoder(w).Encode(Operation{
			Done:  true,
			Error: &OperationError{Code: 400, Message: "Bad Request"},
		})
	})

	op, err := client.CheckOperationStatus(context.Background(), "operations/op-7")
	if err != nil {
		t.Fatalf("CheckOperationStatus: %v", err)
	}
	if !op.Done {
		t.Fatalf("Done = false, want true")
	}
	if op.Error == nil || op.Error.Code != 400 {
		t.Fatalf("Error = %+v, want code 400", op.Error)
	}
	if op.Name != "operations/op-7" {
		t.Fatalf("Name = %q, want echoed handle", op.Name)
	}
}

func TestPostWrapsUpstreamFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	})

	_, err := client.GenerateMusic(context.Background(), MusicParams{Prompt: "jazz"})
	if err == nil {
		t.Fatalf("expected upstream failure")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want 429", apiErr.Status)
	}
	if apiErr.Message != "quota exceeded" {
		t.Fatalf("Message = %q, want quota exceeded", apiErr.Message)
	}
}

type captureUploader struct {
	object      string
	contentType string
	data        []byte
}

func (u *captureUploader) Upload(_ context.Context, object, contentType string, data []byte) (string, error) {
	u.object = object
	u.contentType = contentType
	u.data = append([]byte(nil), data...)
	return "gs://media-assets/" + object, nil
}

func TestSynthesizeSpeechStoresAudio(t *testing.T) {
	audio := []byte("mp3-bytes")
	uploader := &captureUploader{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/text:synthesize") {
			t.Errorf("path = %q, want text:synthesize", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString(audio),
		})
	})
	client.opts.Uploader = uploader

	stored, err := client.SynthesizeSpeech(context.Background(), SpeechParams{Text: "hello", Locale: "en-US"})
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if !strings.HasPrefix(stored.AudioURI, "gs://media-assets/audio/") {
		t.Fatalf("AudioURI = %q, want gs://media-assets/audio/ prefix", stored.AudioURI)
	}
	if uploader.contentType != "audio/mp3" {
		t.Fatalf("contentType = %q, want audio/mp3", uploader.contentType)
	}
	if string(uploader.data) != string(audio) {
		t.Fatalf("uploaded bytes mismatch")
	}
}

func TestVoiceForLocale(t *testing.T) {
	cases := []struct {
		locale   string
		wantCode string
		wantName string
	}{
		{"en-US", "en-US", "en-US-Standard-C"},
		{"de-AT", "de-DE", "de-DE-Standard-B"},
		{"id", "id-ID", "id-ID-Standard-A"},
		{"", "en-US", "en-US-Standard-C"},
		{"xx-invalid!", "en-US", "en-US-Standard-C"},
	}
	for _, tc := range cases {
		code, name := voiceForLocale(tc.locale)
		if code != tc.wantCode || name != tc.wantName {
			t.Fatalf("voiceForLocale(%q) = (%q, %q), want (%q, %q)", tc.locale, code, name, tc.wantCode, tc.wantName)
		}
	}
}

func TestLanguageCodeFromVoice(t *testing.T) {
	cases := []struct {
		voice string
		want  string
	}{
		{"en-US-Standard-C", "en-US"},
		{"en-US-Wavenet-D", "en-US"},
		{"de-DE-Neural2-B", "de-DE"},
		{"cmn-CN-Wavenet-A", "cmn-CN"},
		{"alloy", ""},
		{"en-Standard-A", ""},
		{"EN-us-Wavenet-D", ""},
	}
	for _, tc := range cases {
		if got := languageCodeFromVoice(tc.voice); got != tc.want {
			t.Fatalf("languageCodeFromVoice(%q) = %q, want %q", tc.voice, got, tc.want)
		}
	}
}

func TestSynthesizeSpeechDerivesCodeFromVoiceOverride(t *testing.T) {
	var req synthesizeRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("mp3")),
		})
	})
	client.opts.Uploader = &captureUploader{}

	_, err := client.SynthesizeSpeech(context.Background(), SpeechParams{
		Text:   "servus",
		Voice:  "de-DE-Wavenet-C",
		Locale: "en-US",
	})
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if req.Voice.Name != "de-DE-Wavenet-C" {
		t.Fatalf("voice name = %q, want override", req.Voice.Name)
	}
	if req.Voice.LanguageCode != "de-DE" {
		t.Fatalf("language code = %q, want de-DE from the voice name", req.Voice.LanguageCode)
	}
}
