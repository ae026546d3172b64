// internal/storage/gcs.go
package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/models"
)

// GCSStore archives evidence in a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	logger logger.Logger
}

// NewGCSStore builds a GCS-backed evidence store. credentialsJSON may be
// empty, in which case application default credentials apply.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string, log logger.Logger) (*GCSStore, error) {
	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadWrite)}
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Errorf("initialize gcs client: %w", err))
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: log.WithFields(map[string]interface{}{"component": "evidence_store"}),
	}, nil
}

// Store writes each attachment to <bucket>/<runID>/<evidence name>.jpg and
// returns gs:// references keyed by evidence name.
func (s *GCSStore) Store(ctx context.Context, runID string, evidence models.EvidenceSet) (map[string]string, error) {
	refs := make(map[string]string, len(evidence))

	for name, payload := range evidence {
		if len(payload) == 0 {
			continue
		}
		key := fmt.Sprintf("%s/%s.jpg", runID, name)

		w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
		w.ContentType = "image/jpeg"
		if _, err := w.Write(payload); err != nil {
			_ = w.Close()
			return nil, errors.NewStorageError(fmt.Errorf("write %s: %w", key, err))
		}
		if err := w.Close(); err != nil {
			return nil, errors.NewStorageError(fmt.Errorf("close writer for %s: %w", key, err))
		}

		refs[string(name)] = fmt.Sprintf("gs://%s/%s", s.bucket, key)
	}

	s.logger.Debug("evidence archived", map[string]interface{}{
		"runId":   runID,
		"objects": len(refs),
	})
	return refs, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
