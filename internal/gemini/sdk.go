package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"clipcanvas/internal/banner"
)

// SDKClient serves the same contract as Client through google.golang.org/genai.
type SDKClient struct {
	apiKey     string
	paidKeys   KeySource
	baseURL    string
	apiVersion string
	model      string
	modelHQ    string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewSDK(opts Options) *SDKClient {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	modelHQ := strings.TrimSpace(opts.ModelHQ)
	if modelHQ == "" {
		modelHQ = HighQualityModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SDKClient{
		apiKey:     opts.APIKey,
		paidKeys:   opts.PaidKeys,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiVersion: strings.TrimSpace(opts.APIVersion),
		model:      model,
		modelHQ:    modelHQ,
		httpClient: opts.HTTPClient,
		logger:     logger,
		clients:    make(map[string]*genai.Client),
	}
}

func (c *SDKClient) GenerateImage(ctx context.Context, prompt string, highQuality bool) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	client, err := c.clientFor(ctx, resolveKey(ctx, highQuality, c.apiKey, c.paidKeys))
	if err != nil {
		return "", err
	}

	imgConfig := &genai.ImageConfig{AspectRatio: aspectRatio}
	if highQuality {
		imgConfig.ImageSize = highQualitySize
	}

	model := modelFor(highQuality, c.model, c.modelHQ)
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(banner.ModelPrompt(prompt)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig:        imgConfig,
	})
	if err != nil {
		return "", mapSDKError(err)
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return banner.EncodePNGDataURL(base64.StdEncoding.EncodeToString(p.InlineData.Data)), nil
			}
		}
	}
	return "", ErrNoImageReturned
}

func (c *SDKClient) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	c.clients[apiKey] = client
	return client, nil
}

func mapSDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("request: %w", err)
}
