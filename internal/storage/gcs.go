package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

const gcsPublicBase = "https://storage.googleapis.com"

// GCSStore uploads objects to a Google Cloud Storage bucket through the JSON API.
type GCSStore struct {
	svc        *gcs.Service
	bucket     string
	publicBase string
	policy     retry.Policy
	logger     zerolog.Logger
}

// GCSOption customizes a GCSStore.
type GCSOption func(*GCSStore)

// WithGCSPublicBase overrides the public URL prefix (e.g. a CDN in front of the bucket).
func WithGCSPublicBase(base string) GCSOption {
	return func(s *GCSStore) { s.publicBase = strings.TrimRight(base, "/") }
}

// WithGCSRetry sets the retry policy for uploads.
func WithGCSRetry(policy retry.Policy, logger zerolog.Logger) GCSOption {
	return func(s *GCSStore) {
		s.policy = policy
		s.logger = logger
	}
}

// NewGCSStore creates a store for bucket. clientOpts are passed to the API client
// (credentials, endpoint); application default credentials are used otherwise.
func NewGCSStore(ctx context.Context, bucket string, clientOpts []option.ClientOption, opts ...GCSOption) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	svc, err := gcs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create GCS client: %w", err)
	}
	s := &GCSStore{
		svc:        svc,
		bucket:     bucket,
		publicBase: gcsPublicBase + "/" + bucket,
		policy:     retry.DefaultPolicy(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put uploads data as a new object and returns its public URL.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}

	err = retry.Do(ctx, s.policy, s.logger, "gcs.put", func(ctx context.Context) error {
		obj := &gcs.Object{Name: cleanKey, ContentType: contentType}
		_, err := s.svc.Objects.Insert(s.bucket, obj).
			Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
			IfGenerationMatch(0).
			Context(ctx).
			Do()
		return classifyGoogleError(err)
	})
	if err != nil {
		return "", &Error{Backend: "gcs", Key: cleanKey, Cause: err}
	}
	return s.publicBase + "/" + escapeObjectPath(cleanKey), nil
}

func classifyGoogleError(err error) error {
	if err == nil {
		return nil
	}
	if gerr, ok := err.(*googleapi.Error); ok {
		return &retry.StatusError{StatusCode: gerr.Code, Body: gerr.Message}
	}
	return err
}

func escapeObjectPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
