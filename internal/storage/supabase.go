package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/reel-studio/internal/retry"
	"github.com/rs/zerolog"
)

// SupabaseStore uploads objects to a Supabase Storage bucket over its REST API.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
	policy     retry.Policy
	logger     zerolog.Logger
}

// NewSupabaseStore creates a store for bucket on the project at baseURL.
func NewSupabaseStore(baseURL, serviceKey, bucket string, policy retry.Policy, logger zerolog.Logger) (*SupabaseStore, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(serviceKey) == "" {
		return nil, fmt.Errorf("storage: supabase URL and service key are required")
	}
	if bucket == "" {
		bucket = "assets"
	}
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		policy:     policy,
		logger:     logger,
	}, nil
}

// Put uploads data without upsert and returns the bucket's public URL for the key.
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, escapeObjectPath(cleanKey))

	err = retry.Do(ctx, s.policy, s.logger, "supabase.put", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
		req.Header.Set("apikey", s.serviceKey)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("x-upsert", "false")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &retry.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
	if err != nil {
		return "", &Error{Backend: "supabase", Key: cleanKey, Cause: err}
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, escapeObjectPath(cleanKey)), nil
}
