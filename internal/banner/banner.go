package banner

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type GenerationConfig struct {
	Style        Style  `json:"style"`
	CustomPrompt string `json:"custom_prompt"`
	HighQuality  bool   `json:"high_quality"`
}

func DefaultConfig() GenerationConfig {
	return GenerationConfig{Style: DefaultStyle}
}

// GeneratedBanner is immutable once created. Timestamp is Unix milliseconds
// and doubles as the banner identifier.
type GeneratedBanner struct {
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	Timestamp int64  `json:"timestamp"`
}

func (b GeneratedBanner) Filename() string {
	return fmt.Sprintf("youtube-banner-%d.png", b.Timestamp)
}

func EncodePNGDataURL(base64Data string) string {
	return "data:image/png;base64," + base64Data
}

// ParseDataURL splits a base64 data URL into its media type and payload.
// A value without the data: prefix is treated as a raw base64 PNG payload.
func ParseDataURL(value string) (mimeType string, base64Data string, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", errors.New("empty data url")
	}

	const prefix = "data:"
	if !strings.HasPrefix(value, prefix) {
		return "image/png", value, nil
	}

	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return "", "", errors.New("invalid data url")
	}

	meta := strings.TrimPrefix(parts[0], prefix)
	metaParts := strings.Split(meta, ";")
	mimeType = strings.TrimSpace(metaParts[0])
	if mimeType == "" {
		mimeType = "image/png"
	}
	return mimeType, parts[1], nil
}

func DecodeDataURL(value string) (string, []byte, error) {
	mimeType, data, err := ParseDataURL(value)
	if err != nil {
		return "", nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mimeType, raw, nil
}
