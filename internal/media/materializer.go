package media

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/storage"
)

// MetadataOriginalURIKey is the reserved metadata key holding the durable
// storage-native identifier of a materialized result, so a signed response
// entry always traces back to what is actually persisted.
const MetadataOriginalURIKey = "originalGcsUri"

// URLSigner derives a time-limited externally fetchable URL from a
// storage-native identifier.
type URLSigner interface {
	SignedURL(ctx context.Context, uri string) (string, error)
}

// Materializer rewrites storage-native result identifiers into signed URLs
// at response time. Persisted state is never touched: inputs are copied, and
// entries already in externally usable form pass through unchanged.
type Materializer struct {
	signer URLSigner
	logger zerolog.Logger
}

// NewMaterializer builds a materializer around the given signer.
func NewMaterializer(signer URLSigner, logger zerolog.Logger) *Materializer {
	return &Materializer{signer: signer, logger: logger}
}

// Materialize returns a new slice in which every storage-native ResultURL is
// replaced with a signed URL and the original identifier is recorded under
// MetadataOriginalURIKey.
//
// In strict mode the first signing failure aborts: used on the generation
// response path, where a signing failure is a correctness issue. In lenient
// mode the failing entry keeps its storage-native identifier: used on
// history reads, where availability wins.
func (m *Materializer) Materialize(ctx context.Context, results []domain.GenerationResult, strict bool) ([]domain.GenerationResult, error) {
	out := make([]domain.GenerationResult, len(results))
	copy(out, results)

	for i := range out {
		uri := out[i].ResultURL
		if !storage.IsStorageURI(uri) {
			continue
		}
		signed, err := m.signer.SignedURL(ctx, uri)
		if err != nil {
			m.logger.Error().Err(err).Str("result_url", uri).Msg("materializer: failed to generate signed url")
			if strict {
				return nil, fmt.Errorf("%w: sign %s: %v", domain.ErrSigningFailure, uri, err)
			}
			continue
		}

		meta := make(map[string]any, len(out[i].Metadata)+1)
		for k, v := range out[i].Metadata {
			meta[k] = v
		}
		meta[MetadataOriginalURIKey] = uri

		out[i].ResultURL = signed
		out[i].Metadata = meta
	}
	return out, nil
}
