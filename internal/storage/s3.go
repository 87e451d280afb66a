// Package storage provides the S3-compatible object store client.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStore is the subset of object storage operations the services need.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	PresignGet(ctx context.Context, key, downloadName string, expires time.Duration) (string, error)
	Bucket() string
}

// Options configures the S3 client.
type Options struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for S3-compatible stores (R2, MinIO)
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base for publicly retrievable object URLs
}

// Client talks to an S3-compatible object store. Construct once at startup
// and inject; the underlying SDK client is safe for concurrent use.
type Client struct {
	s3client   *s3.Client
	presign    *s3.PresignClient
	bucket     string
	publicBase string
}

var _ ObjectStore = (*Client)(nil)

// NewClient builds an object store client from the given options.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	s3client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// S3-compatible stores generally route by path, not vhost
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3client:   s3client,
		presign:    s3.NewPresignClient(s3client),
		bucket:     opts.Bucket,
		publicBase: strings.TrimRight(opts.PublicBaseURL, "/"),
	}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put writes body under key and returns the public URL of the object.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error) {
	_, err := c.s3client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return c.PublicURL(key), nil
}

// Delete removes the given keys in one batch request.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}
	out, err := c.s3client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("storage: delete %d objects: %w", len(keys), err)
	}
	// Per-key failures come back in the response body with a 200 status.
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("storage: delete: %d of %d objects failed, first %s: %s",
			len(out.Errors), len(keys), aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return nil
}

// PresignGet returns a time-bounded signed URL for downloading key as an
// attachment named downloadName.
func (c *Client) PresignGet(ctx context.Context, key, downloadName string, expires time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(c.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", downloadName)),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL constructs the publicly retrievable URL for a key.
func (c *Client) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.publicBase + "/" + strings.Join(parts, "/")
}
