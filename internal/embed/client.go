package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mvp-joe/chunklink/internal/config"
)

// HTTPProvider calls an external embedding service: POST {"texts": [...]} -> {"embeddings": [[...]]}.
type HTTPProvider struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

// NewHTTPProvider creates a provider for the configured endpoint.
func NewHTTPProvider(cfg config.EmbeddingConfig) *HTTPProvider {
	return &HTTPProvider{
		endpoint:   cfg.Endpoint,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// embedRequest represents the JSON request body for the embed endpoint.
type embedRequest struct {
	Texts []string `json:"texts"`
}

// embedResponse represents the JSON response from the embed endpoint.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends all texts in one request and validates the response shape.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	jsonData, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if err := Validate(embedResp.Embeddings, len(texts), p.dimensions); err != nil {
		return nil, err
	}

	return embedResp.Embeddings, nil
}

// Dimensions returns the configured vector length.
func (p *HTTPProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op; the service is not owned by this process.
func (p *HTTPProvider) Close() error {
	return nil
}
