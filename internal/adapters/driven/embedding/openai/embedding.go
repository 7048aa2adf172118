// Package openai embeds text through the OpenAI embeddings API or any
// endpoint that speaks the same protocol.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 1536
)

// Only text-embedding-3 models accept a dimensions parameter.
const shortenablePrefix = "text-embedding-3-"

var nativeDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the OpenAI embedding service.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL defaults to DefaultBaseURL. Point it at a compatible gateway
	// to use another host.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Dimensions is the vector length every response must have. Zero
	// selects the model's native size.
	Dimensions int
}

// EmbeddingService turns chunk text into vectors of a fixed length.
// Every failure it returns wraps domain.ErrEmbeddingProvider.
type EmbeddingService struct {
	http       *http.Client
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	shorten    bool
}

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewEmbeddingService validates cfg and resolves the vector length.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", domain.ErrEmbeddingUnavailable)
	}

	s := &EmbeddingService{
		http:       &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultBaseURL
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.http.Timeout == 0 {
		s.http.Timeout = DefaultTimeout
	}
	if s.dimensions == 0 {
		s.dimensions = DefaultDimensions
		if native, ok := nativeDimensions[s.model]; ok {
			s.dimensions = native
		}
	}
	s.shorten = strings.HasPrefix(s.model, shortenablePrefix)
	return s, nil
}

// Embed returns the vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request. The result is aligned with texts
// and each vector has Dimensions() entries.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embedRequest{Model: s.model, Input: texts}
	if s.shorten {
		req.Dimensions = s.dimensions
	}

	var resp embedResponse
	if err := s.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, providerError("%s", resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, providerError("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, providerError("unexpected embedding index %d", d.Index)
		}
		if len(d.Embedding) != s.dimensions {
			return nil, providerError("embedding %d has %d dimensions, want %d", d.Index, len(d.Embedding), s.dimensions)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}

// post sends body as JSON and decodes the reply into out. Non-2xx replies
// become provider errors carrying the API message when there is one.
func (s *EmbeddingService) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, status, err := s.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return providerError("decode response: %v", err)
	}
	return nil
}

func (s *EmbeddingService) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, domain.NewEmbeddingProviderError(fmt.Errorf("openai: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, providerError("read response: %v", err)
	}
	return raw, resp.StatusCode, nil
}

// statusError maps an HTTP failure. 429 stays matchable as domain.ErrRateLimited.
func statusError(status int, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		msg = wrapped.Error.Message
	}

	if status == http.StatusTooManyRequests {
		return domain.NewEmbeddingProviderError(fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, msg))
	}
	return providerError("status %d: %s", status, msg)
}

func providerError(format string, args ...any) error {
	return domain.NewEmbeddingProviderError(fmt.Errorf("openai: "+format, args...))
}

// Dimensions returns the vector length.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	raw, status, err := s.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return statusError(status, raw)
	}
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}
