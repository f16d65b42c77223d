package session

import "clipcanvas/internal/banner"

// History is newest first and unbounded. Timestamps are kept strictly
// decreasing so they stay usable as identifiers.
type History struct {
	items []banner.GeneratedBanner
}

func (h *History) Prepend(url, prompt string, timestamp int64) banner.GeneratedBanner {
	if len(h.items) > 0 && timestamp <= h.items[0].Timestamp {
		timestamp = h.items[0].Timestamp + 1
	}

	b := banner.GeneratedBanner{URL: url, Prompt: prompt, Timestamp: timestamp}
	h.items = append([]banner.GeneratedBanner{b}, h.items...)
	return b
}

func (h *History) Len() int {
	return len(h.items)
}

func (h *History) At(index int) (banner.GeneratedBanner, bool) {
	if index < 0 || index >= len(h.items) {
		return banner.GeneratedBanner{}, false
	}
	return h.items[index], true
}

func (h *History) Find(timestamp int64) (banner.GeneratedBanner, bool) {
	for _, b := range h.items {
		if b.Timestamp == timestamp {
			return b, true
		}
	}
	return banner.GeneratedBanner{}, false
}

func (h *History) Clone() []banner.GeneratedBanner {
	out := make([]banner.GeneratedBanner, len(h.items))
	copy(out, h.items)
	return out
}
