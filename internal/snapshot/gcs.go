// Package snapshot archives raw storefront page bodies so a confirmed
// verdict can always be traced back to the HTML that produced it.
package snapshot

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCS implements catalog.SnapshotStore on a Google Cloud Storage bucket.
// Authentication uses Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCS creates the client and fails fast if the bucket is unreachable.
func NewGCS(ctx context.Context, bucket string, logger *zap.Logger) (*GCS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing gcs client after attrs failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check gcs bucket %q: %w", bucket, err)
	}
	return &GCS{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads data under path and returns the gs:// URI.
func (g *GCS) Save(ctx context.Context, path, contentType string, data []byte) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			g.logger.Warn("closing gcs writer after write failure", zap.Error(closeErr))
		}
		return "", fmt.Errorf("write gcs object %q: %w", path, err)
	}
	// Close finalizes the upload; the object does not exist until it returns.
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %q: %w", path, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, path), nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
