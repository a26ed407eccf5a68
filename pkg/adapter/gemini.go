package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/samcore/pkg/model"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.0-flash"
	defaultTimeout  = 30 * time.Second
)

// Gemini is the interface for the remote model service. One call is one
// attempt: no retry, no caching. Callers decide fallback behavior.
type Gemini interface {
	// Complete sends the assembled prompt and returns the trimmed reply
	// text. Failures are tagged model.ErrTagService (transport or protocol,
	// with a "status" value) or model.ErrTagMalformedResponse (success
	// status, unusable payload).
	Complete(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
}

// GenerateOptions is pass-through generation configuration.
type GenerateOptions struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
}

// DefaultGenerateOptions returns the generation bounds used when the caller
// does not specify any.
func DefaultGenerateOptions() *GenerateOptions {
	return &GenerateOptions{
		MaxOutputTokens: 2048,
		Temperature:     0.7,
		TopP:            0.8,
		TopK:            40,
	}
}

type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

type GeminiOption func(*GeminiClient)

// WithEndpoint overrides the API base URL. Used by tests and proxies.
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiClient) {
		g.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithModel overrides the generative model name.
func WithModel(m string) GeminiOption {
	return func(g *GeminiClient) {
		g.model = m
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiClient) {
		g.httpClient.Timeout = d
	}
}

// NewGemini creates a REST client for the generateContent API. The API key
// is injected by the caller; it is never embedded in this package.
func NewGemini(apiKey string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		endpoint: defaultEndpoint,
		model:    defaultModel,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig *generateConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	if opts == nil {
		opts = DefaultGenerateOptions()
	}

	payload := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generateConfig{
			MaxOutputTokens: opts.MaxOutputTokens,
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			TopK:            opts.TopK,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal request", goerr.T(model.ErrTagService))
	}

	reqURL := g.endpoint + "/models/" + g.model + ":generateContent?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create request", goerr.T(model.ErrTagService))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		status := "unreachable"
		var urlErr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			status = "timeout"
		}
		return "", goerr.Wrap(err, "model request failed",
			goerr.T(model.ErrTagService), goerr.V("status", status))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", goerr.New("model service returned error",
			goerr.T(model.ErrTagService),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(snippet)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", goerr.Wrap(err, "failed to decode response",
			goerr.T(model.ErrTagMalformedResponse))
	}

	if len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0].Text == "" {
		return "", goerr.New("response has no reply text",
			goerr.T(model.ErrTagMalformedResponse))
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}
