// Package archive keeps a copy of every downloaded feed in S3-compatible storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/config"
	"github.com/heinrichb/stocksync/pkg/utils"
)

const defaultRegion = "us-east-1"

// objectPutter is the part of the S3 client the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads feed snapshots under a key prefix.
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an S3Archiver.
type Option func(*S3Archiver)

// WithLogger sets the logger for upload notices.
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3Archiver) {
		a.logger = logger
	}
}

/*
NewS3Archiver creates an archiver from configuration.

Static credentials are used when both keys are set; otherwise the default AWS
chain (environment, shared config, instance role) applies. A custom endpoint
targets S3-compatible stores such as MinIO.
*/
func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig, opts ...Option) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("archive access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	a := &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Key returns the object key a feed file is stored under at time t.
func (a *S3Archiver) Key(localPath string, t time.Time) string {
	base := path.Base(strings.ReplaceAll(localPath, "\\", "/"))
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s%s_%s%s", a.prefix, name, t.UTC().Format(utils.TimestampLayout), ext)
}

// Upload stores the file at localPath and returns its object key.
func (a *S3Archiver) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for archiving: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	key := a.Key(localPath, a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, a.bucket, key, err)
	}

	a.logger.Info("Feed archived", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int64("bytes", info.Size()))
	return key, nil
}
