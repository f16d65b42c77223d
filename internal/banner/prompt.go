package banner

import (
	"fmt"
	"strings"
)

const fallbackFocus = "focus on high energy clips channel aesthetics"

// ComposePrompt builds the text handed to the image generator.
func ComposePrompt(style Style, customPrompt string) string {
	if customPrompt != "" {
		return fmt.Sprintf("%s style: %s", style, customPrompt)
	}
	return fmt.Sprintf("%s style, %s", style, fallbackFocus)
}

// ModelPrompt wraps a composed prompt with the fixed banner brief sent to the model.
func ModelPrompt(prompt string) string {
	return fmt.Sprintf(
		"Create a professional YouTube channel banner for a \"Clips\" channel. The style should be: %s. "+
			"Ensure there is a clean central area for text. High detail, 4k resolution style, cinematic lighting.",
		strings.TrimSpace(prompt),
	)
}
