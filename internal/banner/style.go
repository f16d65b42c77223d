package banner

import "errors"

type Style string

const (
	StyleGaming     Style = "Gaming"
	StylePodcast    Style = "Podcast"
	StyleMinimalist Style = "Minimalist"
	StyleVibrant    Style = "Vibrant"
	StyleDark       Style = "Dark/Cyberpunk"
	StyleNature     Style = "Nature/Relaxing"
)

const DefaultStyle = StyleGaming

var ErrUnknownStyle = errors.New("unknown banner style")

// StyleOption describes one selectable style in display order.
type StyleOption struct {
	Key   string `json:"key"`
	Style Style  `json:"style"`
}

var styleOrder = []StyleOption{
	{Key: "gaming", Style: StyleGaming},
	{Key: "podcast", Style: StylePodcast},
	{Key: "minimal", Style: StyleMinimalist},
	{Key: "vibrant", Style: StyleVibrant},
	{Key: "dark", Style: StyleDark},
	{Key: "nature", Style: StyleNature},
}

func Styles() []StyleOption {
	out := make([]StyleOption, len(styleOrder))
	copy(out, styleOrder)
	return out
}

// ParseStyle accepts either the display label or the short key.
func ParseStyle(value string) (Style, error) {
	for _, opt := range styleOrder {
		if value == string(opt.Style) || value == opt.Key {
			return opt.Style, nil
		}
	}
	return "", ErrUnknownStyle
}

func (s Style) Valid() bool {
	_, err := ParseStyle(string(s))
	return err == nil
}

func (s Style) String() string {
	return string(s)
}
