package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Options configure an S3 compatible record store such as the GCS interoperability endpoint
type S3Options struct {
	Endpoint   string
	Region     string
	Bucket     string
	Key        string
	AccessKey  string
	SecretKey  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type s3Backend struct {
	client  *s3.S3
	bucket  string
	key     string
	timeout time.Duration
}

// NewS3Storage creates a storage that keeps records in a single object.
// Concurrent writers in different processes overwrite each other.
func NewS3Storage(opts S3Options) (*Storage, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, errors.New("bucket and key are required")
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	awsCfg := &aws.Config{
		Region:           aws.String(opts.Region),
		Endpoint:         aws.String(opts.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
	}
	if opts.HTTPClient != nil {
		awsCfg.HTTPClient = opts.HTTPClient
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &Storage{backend: &s3Backend{
		client:  s3.New(sess),
		bucket:  opts.Bucket,
		key:     opts.Key,
		timeout: opts.Timeout,
	}}, nil
}

func (b *s3Backend) read() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", b.bucket, b.key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (b *s3Backend) write(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

func (b *s3Backend) location() string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, b.key)
}

func isNotFoundError(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
