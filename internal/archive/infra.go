package archive

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Insecure  bool
}

type S3Client struct {
	client *minio.Client
	bucket string
	host   string
}

func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	// проверим, что бакет существует
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	scheme := "https"
	if cfg.Insecure {
		scheme = "http"
	}
	return &S3Client{
		client: client,
		bucket: cfg.Bucket,
		host:   fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}, nil
}

// PutObject загружает запись и возвращает её URL
func (s *S3Client) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return s.publicURL(key), nil
}

func (s *S3Client) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.host, s.bucket, (&url.URL{Path: path.Clean(key)}).EscapedPath())
}
