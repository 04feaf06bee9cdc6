// Package proof stores payment-proof artifacts and hands back stable
// reference strings. The core workflow only ever sees the reference;
// validation of the artifact (type allow-list, size cap) happens here,
// at the upload boundary.
package proof

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// MaxSize caps proof uploads at 5 MB.
const MaxSize = 5 << 20

var (
	ErrEmpty           = errors.New("payment proof is empty")
	ErrTooLarge        = errors.New("payment proof exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("payment proof must be a JPG, PNG or PDF")
)

// extByType doubles as the content-type allow-list.
var extByType = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// Validate checks an upload against the allow-list before any bytes are
// stored.
func Validate(contentType string, size int64) error {
	if size == 0 {
		return ErrEmpty
	}
	if size > MaxSize {
		return ErrTooLarge
	}
	if _, ok := extByType[contentType]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// Store persists proof artifacts. Put returns the reference recorded on
// the payment request; Get streams the artifact back for admin review.
type Store interface {
	Put(ctx context.Context, contentType string, body io.Reader) (string, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, string, error)
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Configured reports whether the config carries enough to reach a
// bucket.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// S3Store keeps proofs in an S3-compatible bucket under payments/.
// Uploads retry on transient faults; the business core above this layer
// never retries anything.
type S3Store struct {
	client s3Client
	bucket string
}

func NewS3Store(cfg S3Config) *S3Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Store{client: s3.New(opts), bucket: cfg.Bucket}
}

func (s *S3Store) Put(ctx context.Context, contentType string, body io.Reader) (string, error) {
	ext, ok := extByType[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	// Buffer the artifact so each retry attempt re-reads from the start.
	data, err := io.ReadAll(io.LimitReader(body, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read proof: %w", err)
	}
	if err := Validate(contentType, int64(len(data))); err != nil {
		return "", err
	}

	key := "payments/" + uuid.NewString() + ext

	backoff := retry.WithMaxRetries(3, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload proof: %w", err)
	}

	return key, nil
}

func (s *S3Store) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, "", fmt.Errorf("download proof: %w", err)
	}
	contentType := ""
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}
