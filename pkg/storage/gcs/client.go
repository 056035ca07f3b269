// Package gcs stores uploads in a Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage"
)

const (
	pingTimeout = 5 * time.Second
	publicHost  = "https://storage.googleapis.com"
)

var _ storage.Uploader = (*Client)(nil)

// Client writes objects to one bucket through the Cloud Storage JSON API.
type Client struct {
	objects    *gstorage.ObjectsService
	bucket     string
	publicBase string
}

// NewClient authenticates with the configured service account JSON or, when none is
// set, application default credentials, and checks the bucket is reachable.
func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(gstorage.DevstorageReadWriteScope)}
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func open(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs service: %w", err)
	}
	public := strings.TrimSpace(cfg.PublicBaseURL)
	if public == "" {
		public = publicHost + "/" + cfg.BucketName
	}
	return &Client{objects: svc.Objects, bucket: cfg.BucketName, publicBase: public}, nil
}

func (c *Client) Backend() string { return "gcs" }

func (c *Client) BaseURL() string { return c.publicBase }

func (c *Client) PublicURL(key string) string {
	return storage.JoinURL(c.publicBase, key)
}

// Ping lists at most one object, which needs the same bucket permission as an upload.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.objects == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.objects.List(c.bucket).MaxResults(1).Fields("items(name)").Context(ctx).Do(); err != nil {
		return describe("gcs bucket check failed", err)
	}
	return nil
}

// Put uploads body in one request; Cloud Storage only exposes the object once the
// whole body has arrived, so a failed upload leaves nothing behind.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object := &gstorage.Object{Name: key, ContentType: contentType, CacheControl: "public, max-age=31536000"}
	_, err = c.objects.Insert(c.bucket, object).
		Media(body, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", describe("gcs upload failed", err)
	}
	return c.PublicURL(key), nil
}

func describe(prefix string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(apiErr.Body)
		}
		return fmt.Errorf("%s: %d: %s: %w", prefix, apiErr.Code, msg, err)
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
