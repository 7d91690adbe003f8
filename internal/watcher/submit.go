package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marque/internal/domain/model"
)

const submitTimeout = 10 * time.Second

// Submitter delivers event submissions to the tracker service.
type Submitter interface {
	Submit(ctx context.Context, sub model.EventSubmission) error
}

// HTTPSubmitter posts submissions to the tracker's ingestion endpoint.
type HTTPSubmitter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSubmitter creates a submitter for the given tracker base URL.
func NewHTTPSubmitter(baseURL, apiKey string) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: submitTimeout,
		},
	}
}

// Submit implements Submitter.
func (s *HTTPSubmitter) Submit(ctx context.Context, sub model.EventSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post event: unexpected status %d", resp.StatusCode)
	}
	return nil
}
