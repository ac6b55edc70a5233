// Package storage publishes export artifacts to a Google Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const exportPrefix = "exports"

// ExportBucket writes export artifacts and signs download links for them.
type ExportBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

// NewExportBucket connects to bucketName. credentialsPath may be empty to use
// application default credentials.
func NewExportBucket(ctx context.Context, bucketName, projectID, credentialsPath string) (*ExportBucket, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &ExportBucket{
		client: client,
		bucket: client.Bucket(bucketName),
		name:   bucketName,
	}, nil
}

// Put streams r into objectName. The object downloads under its base name.
func (b *ExportBucket) Put(ctx context.Context, r io.Reader, objectName, contentType string) (*UploadResult, error) {
	w := b.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.ContentDisposition = fmt.Sprintf("attachment; filename=%s", path.Base(objectName))

	size, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize %s in bucket %s: %w", objectName, b.name, err)
	}

	return &UploadResult{ObjectName: objectName, Size: size}, nil
}

func (b *ExportBucket) Delete(ctx context.Context, objectName string) error {
	return b.bucket.Object(objectName).Delete(ctx)
}

// SignedURL returns a V4 GET link valid for ttl.
func (b *ExportBucket) SignedURL(objectName string, ttl time.Duration) (string, error) {
	return b.bucket.SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (b *ExportBucket) Close() error {
	return b.client.Close()
}

// ExportObjectName places an export under exports/<id>/ with a timestamp
// prefix so repeated publishes never overwrite each other.
func ExportObjectName(exportID, filename string, at time.Time) string {
	return path.Join(exportPrefix, exportID, fmt.Sprintf("%d_%s", at.Unix(), filename))
}
