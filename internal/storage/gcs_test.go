package storage

import "testing"

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://gen-bucket/videos/sample_0.mp4")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if bucket != "gen-bucket" {
		t.Fatalf("bucket = %q, want gen-bucket", bucket)
	}
	if object != "videos/sample_0.mp4" {
		t.Fatalf("object = %q, want videos/sample_0.mp4", object)
	}
}

func TestParseURIRejectsMalformed(t *testing.T) {
	cases := []string{
		"https://example.com/file.png",
		"gs://",
		"gs://bucket-only",
		"gs://bucket/",
		"",
	}
	for _, uri := range cases {
		if _, _, err := ParseURI(uri); err == nil {
			t.Fatalf("ParseURI(%q) expected error", uri)
		}
	}
}

func TestIsStorageURI(t *testing.T) {
	if !IsStorageURI("gs://bucket/object") {
		t.Fatalf("gs URI not recognized")
	}
	if IsStorageURI("https://signed.example.com/object?sig=abc") {
		t.Fatalf("signed URL misclassified as storage-native")
	}
}
