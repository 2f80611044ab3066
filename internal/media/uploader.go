// Package media stores article images and videos in an S3 bucket and maps
// object keys to public URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"masbate_today/internal/domain"
)

// ObjectAPI is the subset of the S3 client the uploader needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// NewS3Client builds a client from the ambient AWS credentials. A custom
// endpoint switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type Uploader struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewUploader returns an uploader. A nil client means object storage is not
// configured: uploads fail and deletes do nothing.
func NewUploader(client ObjectAPI, cfg Config, logger *slog.Logger) *Uploader {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" && cfg.Bucket != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  logger.With("component", "media"),
		now:     time.Now,
	}
}

// Upload stores body under prefix and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	if u.client == nil {
		return "", domain.ErrNotConfigured
	}

	key := u.objectKey(prefix, filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	u.logger.Debug("uploaded media", "key", key)
	return u.baseURL + "/" + key, nil
}

// Delete removes the object behind url. Failures are logged, and URLs that
// do not point into the bucket are ignored.
func (u *Uploader) Delete(ctx context.Context, url string) {
	if u.client == nil {
		return
	}

	key, ok := strings.CutPrefix(url, u.baseURL+"/")
	if !ok || key == "" {
		u.logger.Debug("ignoring foreign media url", "url", url)
		return
	}

	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		u.logger.Warn("failed to delete media", "key", key, "error", err)
	}
}

func (u *Uploader) objectKey(prefix, filename string) string {
	name := fmt.Sprintf("%d_%s", u.now().UnixMilli(), sanitize(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func sanitize(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	if strings.Trim(clean, "._") == "" {
		return "file"
	}
	return clean
}
