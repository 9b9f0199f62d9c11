package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Minio serves payloads from a MinIO or S3-compatible bucket, for datasets
// whose preprocessed samples are hosted remotely.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinio creates a bucket-backed store. prefix is prepended to all keys
// (e.g. "imagenet/preprocessed/").
func NewMinio(client *minio.Client, bucket, prefix string) (*Minio, error) {
	if client == nil {
		return nil, errors.New("source: nil minio client")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("source: empty minio bucket")
	}
	return &Minio{client: client, bucket: bucket, prefix: prefix}, nil
}

// Fetch downloads the object for key.
func (s *Minio) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("source: nil minio store")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("source: empty key")
	}

	objKey := path.Join(s.prefix, key)
	obj, err := s.client.GetObject(ctx, s.bucket, objKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("source: get %q: %w", objKey, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil, fmt.Errorf("source: %q: %w", objKey, ErrNotFound)
		}
		return nil, fmt.Errorf("source: read %q: %w", objKey, err)
	}
	return b, nil
}
