// Package media stores uploaded issue photos in S3 compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"naagrik-api/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const folder = "issues"

// Object is a stored upload.
type Object struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Uploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, contentType, ext string) (*Object, error)
}

type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioUploader connects to the storage endpoint and creates the bucket
// if it does not exist yet.
func NewMinioUploader(ctx context.Context, cfg config.Storage) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioUploader{client: client, bucket: cfg.Bucket, baseURL: publicBase(cfg)}, nil
}

func publicBase(cfg config.Storage) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: cfg.Endpoint, Path: "/" + cfg.Bucket}).String()
}

func (u *MinioUploader) Upload(ctx context.Context, r io.Reader, size int64, contentType, ext string) (*Object, error) {
	key := ObjectKey(uuid.NewString(), ext)
	_, err := u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &Object{URL: u.baseURL + "/" + key, PublicID: key}, nil
}

// ObjectKey places an upload under the issues folder.
func ObjectKey(id, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(folder, id+ext)
}
