// Package gcs stores media in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
	"github.com/angelmondragon/photoalbum-backend/pkg/storage"
	"google.golang.org/api/option"
)

const (
	scheme      = "gs://"
	pingTimeout = 5 * time.Second
)

// Client writes blobs to one bucket. Locations are gs://bucket/object URIs.
type Client struct {
	client *gcstorage.Client
	bucket string
	prefix string
}

// NewClient opens a storage client and verifies the bucket is reachable.
// STORAGE_EMULATOR_HOST is honoured by the SDK.
func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	sdk, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	client := &Client{
		client: sdk,
		bucket: cfg.BucketName,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}

	if err := client.Ping(ctx); err != nil {
		_ = sdk.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

func (c *Client) Put(ctx context.Context, key, contentType string, r io.Reader) (string, int64, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", 0, err
	}

	// Cancelling the writer's context aborts the upload; Close would commit
	// whatever was copied so far.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	object := c.objectName(key)
	w := c.client.Bucket(c.bucket).Object(object).
		If(gcstorage.Conditions{DoesNotExist: true}).
		NewWriter(writeCtx)
	w.ContentType = contentType

	written, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return "", 0, fmt.Errorf("uploading %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("finalizing %s: %w", object, err)
	}

	return Location(c.bucket, object), written, nil
}

// Open streams the object. The Body is not seekable.
func (c *Client) Open(ctx context.Context, location string) (*storage.Object, error) {
	bucket, object, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	reader, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) || errors.Is(err, gcstorage.ErrBucketNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}

	return &storage.Object{
		Body:    reader,
		Size:    reader.Attrs.Size,
		ModTime: reader.Attrs.LastModified,
	}, nil
}

func (c *Client) Delete(ctx context.Context, location string) error {
	bucket, object, err := ParseLocation(location)
	if err != nil {
		return err
	}
	if err := c.client.Bucket(bucket).Object(object).Delete(ctx); err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s: %w", location, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) objectName(key string) string {
	if c.prefix == "" {
		return key
	}
	return path.Join(c.prefix, key)
}

// Location formats a bucket/object pair as a gs:// URI.
func Location(bucket, object string) string {
	return scheme + bucket + "/" + object
}

// ParseLocation splits a gs://bucket/object URI.
func ParseLocation(location string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(location, scheme)
	if !ok {
		return "", "", fmt.Errorf("location %q is not a gs:// uri", location)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("location %q must name a bucket and object", location)
	}
	return bucket, object, nil
}
