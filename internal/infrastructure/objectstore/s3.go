package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/basel-ax/roomdream/internal/config"
	"github.com/basel-ax/roomdream/internal/domain"
)

// Gateway signs URLs for browser access to room photos and writes generated
// renderings server side.
type Gateway struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	uploadTTL time.Duration
	readTTL   time.Duration
	newKey    func() string
	log       *zap.Logger
}

// New builds a Gateway from configuration. An explicit endpoint selects an
// S3-compatible service such as MinIO.
func New(ctx context.Context, cfg config.S3Config, log *zap.Logger) (*Gateway, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithClient(client, cfg, log), nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client *s3.Client, cfg config.S3Config, log *zap.Logger) *Gateway {
	return &Gateway{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		uploadTTL: cfg.UploadURLExpiry,
		readTTL:   cfg.ReadURLExpiry,
		newKey:    uuid.NewString,
		log:       log,
	}
}

// NewKey returns a fresh random object key.
func (g *Gateway) NewKey() string {
	return g.newKey()
}

// UploadURL mints a key and a signed PUT URL for it.
func (g *Gateway) UploadURL(ctx context.Context) (domain.UploadTicket, error) {
	key := g.newKey()

	req, err := g.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(g.uploadTTL))
	if err != nil {
		return domain.UploadTicket{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	g.log.Debug("Upload URL signed", zap.String("key", key), zap.Duration("expires", g.uploadTTL))

	return domain.UploadTicket{UploadURL: req.URL, Key: key}, nil
}

// ReadURL returns a signed GET URL for key.
func (g *Gateway) ReadURL(ctx context.Context, key string) (string, error) {
	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(g.readTTL))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// PutObject stores body under key.
func (g *Gateway) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := g.client.PutObject(ctx, input); err != nil {
		g.log.Error("Failed to upload object to S3",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("put object %s: %w", key, err)
	}

	g.log.Info("Object uploaded to S3",
		zap.String("key", key),
		zap.Int("size", len(body)))

	return nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (g *Gateway) EnsureBucket(ctx context.Context, region string) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if err == nil {
		g.log.Info("Bucket already exists", zap.String("bucket", g.bucket))
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head bucket %s: %w", g.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(g.bucket)}
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := g.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("create bucket %s: %w", g.bucket, err)
	}

	g.log.Info("Bucket created", zap.String("bucket", g.bucket))
	return nil
}
