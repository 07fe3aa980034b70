// Package objectstore issues presigned URLs for dashcam clip uploads and
// playback. Credentials never leave this service; collectors and the
// dashboard receive time-limited URLs instead.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the object store settings.
type Config struct {
	Bucket    string
	Prefix    string // key prefix for all uploads
	Region    string
	Endpoint  string // custom endpoint for S3-compatible storage (MinIO, etc.)
	AccessKey string // optional, uses the default credential chain if empty
	SecretKey string
}

// Client wraps the S3 presign client.
type Client struct {
	presign *s3.PresignClient
	config  Config
	logger  *slog.Logger
}

// NewClient creates an object store client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-south-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	logger.Info("object store client initialized",
		"bucket", cfg.Bucket, "prefix", cfg.Prefix, "region", cfg.Region)

	return &Client{
		presign: s3.NewPresignClient(client),
		config:  cfg,
		logger:  logger,
	}, nil
}

// PresignUpload returns a time-limited URL for uploading one clip.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(c.fullKey(key)),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := c.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return req.URL, nil
}

// PresignPlayback returns a time-limited URL for downloading one clip.
func (c *Client) PresignPlayback(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(c.fullKey(key)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign playback: %w", err)
	}
	return req.URL, nil
}

// UploadKey builds the object key for one device's upload. Device and file
// identifiers come from untrusted collectors, so both are sanitized.
func (c *Client) UploadKey(deviceID, filename string) string {
	return SanitizeKeyPart(deviceID) + "/" + SanitizeKeyPart(filename)
}

// SanitizeKeyPart strips path separators and any character outside
// [a-zA-Z0-9._-] from an identifier, so untrusted input cannot traverse or
// restructure the bucket layout.
func SanitizeKeyPart(part string) string {
	var b strings.Builder
	b.Grow(len(part))
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "unknown"
	}
	return s
}

func (c *Client) fullKey(key string) string {
	if c.config.Prefix == "" {
		return strings.TrimPrefix(key, "/")
	}
	return strings.TrimSuffix(c.config.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}
