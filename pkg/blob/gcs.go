package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs as objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	publicPrefix string
}

// NewGCSStore connects with application default credentials unless credentialsFile is set.
func NewGCSStore(ctx context.Context, bucket, credentialsFile, publicPrefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	c, err := cleanName(name)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(c).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", c, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	c, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(c).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	c, err := cleanName(name)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(c).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStore) URL(name string) string {
	return s.publicPrefix + "/" + strings.TrimLeft(name, "/")
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
