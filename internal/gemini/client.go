package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clipcanvas/internal/banner"
)

type Options struct {
	APIKey     string
	PaidKeys   KeySource
	BaseURL    string
	APIVersion string
	Model      string
	ModelHQ    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the generativelanguage REST endpoint directly.
type Client struct {
	apiKey     string
	paidKeys   KeySource
	baseURL    string
	apiVersion string
	model      string
	modelHQ    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

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

	return &Client{
		apiKey:     opts.APIKey,
		paidKeys:   opts.PaidKeys,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		modelHQ:    modelHQ,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, highQuality bool) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	imgConfig := &imageConfig{AspectRatio: aspectRatio}
	if highQuality {
		imgConfig.ImageSize = highQualitySize
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: banner.ModelPrompt(prompt)}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        imgConfig,
		},
	}

	model := modelFor(highQuality, c.model, c.modelHQ)
	apiKey := resolveKey(ctx, highQuality, c.apiKey, c.paidKeys)

	start := time.Now()
	resp, err := c.generateContent(ctx, model, apiKey, req)
	if err != nil {
		return "", err
	}
	c.logger.Debug("gemini generate", "model", model, "high_quality", highQuality, "dur_ms", time.Since(start).Milliseconds())

	data, ok := firstImage(resp)
	if !ok {
		return "", ErrNoImageReturned
	}
	return banner.EncodePNGDataURL(data), nil
}

func (c *Client) generateContent(ctx context.Context, model, apiKey string, payload generateContentRequest) (generateContentResponse, error) {
	if c.httpClient == nil {
		return generateContentResponse{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, newAPIError(httpResp, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func newAPIError(resp *http.Response, rawBody []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(rawBody)),
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err == nil && envelope.Error != nil {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
	}
	if apiErr.Status == "" {
		apiErr.Status = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// firstImage returns the payload of the first part carrying inline data.
func firstImage(resp generateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 {
		return "", false
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData.Data, true
		}
	}
	return "", false
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
