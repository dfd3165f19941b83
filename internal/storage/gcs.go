package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

// Scheme is the storage-native URI prefix. Identifiers carrying it are
// internal references and must be signed before leaving the service.
const Scheme = "gs://"

// IsStorageURI reports whether the identifier is storage-native rather than
// an externally fetchable URL.
func IsStorageURI(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// ParseURI splits a gs://bucket/object identifier into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsStorageURI(uri) {
		return "", "", fmt.Errorf("invalid storage URI format: %q", uri)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	idx := strings.IndexByte(rest, '/')
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("invalid storage URI format: %q", uri)
	}
	return rest[:idx], rest[idx+1:], nil
}

// Bucket wraps a Google Cloud Storage client for the artifact bucket. It
// mints time-limited V4 signed URLs and stores service-produced artifacts
// (synthesized speech, user uploads).
type Bucket struct {
	client *gcs.Client
	name   string
	expiry time.Duration
}

// NewBucket connects a storage client for the named bucket. expiry bounds
// the lifetime of every signed URL it produces.
func NewBucket(ctx context.Context, name string, expiry time.Duration) (*Bucket, error) {
	if name == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &Bucket{client: client, name: name, expiry: expiry}, nil
}

// SignedURL derives a time-limited externally fetchable URL from a
// storage-native identifier. The identifier may point at any bucket, not
// only the configured one; the generation platform writes wherever its
// storageUri parameter says.
func (b *Bucket) SignedURL(ctx context.Context, uri string) (string, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(b.expiry),
	}
	url, err := b.client.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("storage: sign %s: %w", uri, err)
	}
	return url, nil
}

// Upload writes data under the given object path in the configured bucket
// and returns its storage-native identifier.
func (b *Bucket) Upload(ctx context.Context, object, contentType string, data []byte) (string, error) {
	object = strings.TrimPrefix(object, "/")
	if object == "" {
		return "", errors.New("storage: object path is required")
	}
	w := b.client.Bucket(b.name).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize %s: %w", object, err)
	}
	return Scheme + b.name + "/" + object, nil
}

// Download fetches the object behind a storage-native identifier.
func (b *Bucket) Download(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := b.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", uri, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", uri, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (b *Bucket) Close() error {
	return b.client.Close()
}
