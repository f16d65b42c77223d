package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultModel     = "gemini-2.5-flash-image"
	HighQualityModel = "gemini-3-pro-image-preview"

	aspectRatio     = "16:9"
	highQualitySize = "2K"

	entityNotFound = "Requested entity was not found"
)

var ErrNoImageReturned = errors.New("no image data found in response")

// KeySource supplies the credential for the high quality tier.
type KeySource interface {
	PaidAPIKey(ctx context.Context) (string, bool)
}

// APIError is a failure reported by the generative service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if e.Status != "" {
		return fmt.Sprintf("gemini API %d %s: %s", e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("gemini API %d: %s", e.StatusCode, msg)
}

// IsEntityNotFound reports whether the service rejected the configured key
// or model as missing.
func IsEntityNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), entityNotFound)
}

func modelFor(highQuality bool, defaultModel, hqModel string) string {
	if highQuality {
		return hqModel
	}
	return defaultModel
}

func resolveKey(ctx context.Context, highQuality bool, fallback string, keys KeySource) string {
	if highQuality && keys != nil {
		if key, ok := keys.PaidAPIKey(ctx); ok && strings.TrimSpace(key) != "" {
			return key
		}
	}
	return fallback
}
