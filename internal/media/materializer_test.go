package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
)

type stubSigner struct {
	failFor map[string]bool
	calls   []string
}

func (s *stubSigner) SignedURL(_ context.Context, uri string) (string, error) {
	s.calls = append(s.calls, uri)
	if s.failFor[uri] {
		return "", errors.New("sign unavailable")
	}
	return "https://signed.example.com/" + strings.TrimPrefix(uri, "gs://"), nil
}

func TestMaterializeDoesNotMutateInput(t *testing.T) {
	in := []domain.GenerationResult{
		{ID: "r1", ResultURL: "gs://bucket/a.png", Metadata: map[string]any{"index": 0}},
		{ID: "r2", ResultURL: "gs://bucket/b.png", Metadata: map[string]any{"index": 1}},
	}
	m := NewMaterializer(&stubSigner{}, zerolog.Nop())

	out, err := m.Materialize(context.Background(), in, true)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d results, want %d", len(out), len(in))
	}
	if in[0].ResultURL != "gs://bucket/a.png" || in[1].ResultURL != "gs://bucket/b.png" {
		t.Fatalf("input slice was mutated: %+v", in)
	}
	if _, ok := in[0].Metadata[MetadataOriginalURIKey]; ok {
		t.Fatal("input metadata was mutated")
	}
	if out[0].ID != "r1" || out[1].ID != "r2" {
		t.Fatalf("result order changed: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestMaterializeRecordsOriginalURI(t *testing.T) {
	in := []domain.GenerationResult{
		{ID: "r1", ResultURL: "gs://bucket/generated/clip.mp4", Metadata: map[string]any{"mimeType": "video/mp4"}},
	}
	m := NewMaterializer(&stubSigner{}, zerolog.Nop())

	out, err := m.Materialize(context.Background(), in, true)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	got := out[0]
	if !strings.HasPrefix(got.ResultURL, "https://signed.example.com/") {
		t.Fatalf("result URL not signed: %s", got.ResultURL)
	}
	if got.Metadata[MetadataOriginalURIKey] != "gs://bucket/generated/clip.mp4" {
		t.Fatalf("original URI not recorded: %v", got.Metadata[MetadataOriginalURIKey])
	}
	if got.Metadata["mimeType"] != "video/mp4" {
		t.Fatal("existing metadata keys must be preserved")
	}
}

func TestMaterializePassesThroughExternalURLs(t *testing.T) {
	signer := &stubSigner{}
	in := []domain.GenerationResult{
		{ID: "r1", ResultURL: "https://already.example.com/asset.png", Metadata: map[string]any{"index": 0}},
	}
	m := NewMaterializer(signer, zerolog.Nop())

	out, err := m.Materialize(context.Background(), in, true)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if out[0].ResultURL != in[0].ResultURL {
		t.Fatalf("external URL must pass through unchanged, got %s", out[0].ResultURL)
	}
	if len(signer.calls) != 0 {
		t.Fatalf("signer called %d times for non-storage URI", len(signer.calls))
	}
	if _, ok := out[0].Metadata[MetadataOriginalURIKey]; ok {
		t.Fatal("pass-through entries must not gain the original URI key")
	}
}

func TestMaterializeStrictAbortsOnSigningFailure(t *testing.T) {
	signer := &stubSigner{failFor: map[string]bool{"gs://bucket/a.png": true}}
	in := []domain.GenerationResult{{ID: "r1", ResultURL: "gs://bucket/a.png"}}
	m := NewMaterializer(signer, zerolog.Nop())

	_, err := m.Materialize(context.Background(), in, true)
	if !errors.Is(err, domain.ErrSigningFailure) {
		t.Fatalf("got %v, want ErrSigningFailure", err)
	}
}

func TestMaterializeLenientKeepsFailedEntries(t *testing.T) {
	signer := &stubSigner{failFor: map[string]bool{"gs://bucket/b.png": true}}
	in := []domain.GenerationResult{
		{ID: "r1", ResultURL: "gs://bucket/a.png", Metadata: map[string]any{}},
		{ID: "r2", ResultURL: "gs://bucket/b.png", Metadata: map[string]any{}},
		{ID: "r3", ResultURL: "gs://bucket/c.png", Metadata: map[string]any{}},
	}
	m := NewMaterializer(signer, zerolog.Nop())

	out, err := m.Materialize(context.Background(), in, false)
	if err != nil {
		t.Fatalf("lenient Materialize must not fail: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d results, want 3", len(out))
	}
	if !strings.HasPrefix(out[0].ResultURL, "https://") {
		t.Fatalf("first entry not signed: %s", out[0].ResultURL)
	}
	if out[1].ResultURL != "gs://bucket/b.png" {
		t.Fatalf("failed entry must keep its storage URI, got %s", out[1].ResultURL)
	}
	if _, ok := out[1].Metadata[MetadataOriginalURIKey]; ok {
		t.Fatal("failed entry must not gain the original URI key")
	}
	if !strings.HasPrefix(out[2].ResultURL, "https://") {
		t.Fatalf("third entry not signed: %s", out[2].ResultURL)
	}
}
