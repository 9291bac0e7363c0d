package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
)

const htmlContentType = "text/html; charset=utf-8"

// sitesReadPolicy grants anonymous read on published sites only.
const sitesReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/sites/*"]
  }]
}`

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

// MinIOPublisher implements Publisher on MinIO or any S3-compatible store.
type MinIOPublisher struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIOPublisher connects to the store and ensures the bucket exists with
// public read access on the sites/ prefix.
func NewMinIOPublisher(ctx context.Context, cfg MinIOConfig) (*MinIOPublisher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	p := &MinIOPublisher{client: client, bucket: cfg.Bucket, baseURL: cfg.PublicBaseURL}
	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MinIOPublisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
		applog.LogInfo(ctx, "bucket created", zap.String("bucket", p.bucket))
	}
	if err := p.client.SetBucketPolicy(ctx, p.bucket, fmt.Sprintf(sitesReadPolicy, p.bucket)); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", p.bucket, err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (p *MinIOPublisher) Ping(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s missing", p.bucket)
	}
	return nil
}

// Publish uploads html as the site's index page.
func (p *MinIOPublisher) Publish(ctx context.Context, slug, html string) (string, error) {
	if !ValidSlug(slug) {
		return "", fmt.Errorf("%w: invalid slug %q", ErrPublishFailed, slug)
	}

	key := ObjectKey(slug)
	info, err := p.client.PutObject(ctx, p.bucket, key, strings.NewReader(html), int64(len(html)),
		minio.PutObjectOptions{
			ContentType:  htmlContentType,
			CacheControl: "public, max-age=300",
		})
	if err != nil {
		applog.LogError(ctx, "site upload failed", err,
			zap.String("bucket", p.bucket), zap.String("key", key))
		return "", fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	applog.LogInfo(ctx, "site uploaded",
		zap.String("bucket", p.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size),
	)
	return PublicURL(p.baseURL, slug), nil
}

// Unpublish deletes the site object. S3 treats deleting a missing key as
// success.
func (p *MinIOPublisher) Unpublish(ctx context.Context, slug string) error {
	key := ObjectKey(slug)
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove site %s: %w", key, err)
	}
	applog.LogInfo(ctx, "site removed", zap.String("bucket", p.bucket), zap.String("key", key))
	return nil
}

// Compile-time interface check
var _ Publisher = (*MinIOPublisher)(nil)
