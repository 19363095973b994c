package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrObjectNotFound is returned by GetObject when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Options configures a Client.
type Options struct {
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string
	Region   string
	// AccessKey and SecretKey select static credentials. When empty the
	// default AWS credential chain is used.
	AccessKey string
	SecretKey string
	// UsePathStyle addresses buckets as a path segment instead of a host.
	UsePathStyle bool
}

// Client wraps the S3 client.
type Client struct {
	s3     *s3.Client
	region string
}

// NewClient creates a new S3 client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &Client{s3: client, region: opts.Region}, nil
}

// GetObject downloads an object from a bucket. A missing key or bucket yields
// an error wrapping ErrObjectNotFound.
func (c *Client) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucketName, key)
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucketName, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return buf.Bytes(), nil
}

// PutObject uploads a JSON object to a bucket.
func (c *Client) PutObject(ctx context.Context, bucketName, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// DeleteObject deletes an object from a bucket.
func (c *Client) DeleteObject(ctx context.Context, bucketName, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// IsNotFound checks if the error is a missing key or bucket.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound", "404":
			return true
		}
	}

	return false
}
