package banner

const (
	AspectRatio  = "16:9"
	CanvasWidth  = 2560
	CanvasHeight = 1440

	safeZoneWidthPct  = 60.0
	safeZoneHeightPct = 29.0

	SafeZoneLabel   = "Safe Zone (Text & Logos)"
	SafeZoneCaption = "Full Image: TV (2560x1440)"
)

// Overlay positions the safe area as percentages of the 16:9 canvas.
type Overlay struct {
	LeftPct   float64 `json:"left_pct"`
	TopPct    float64 `json:"top_pct"`
	WidthPct  float64 `json:"width_pct"`
	HeightPct float64 `json:"height_pct"`
	Label     string  `json:"label"`
	Caption   string  `json:"caption"`
}

// SafeZone returns nil when the overlay is hidden so nothing gets rendered.
func SafeZone(visible bool) *Overlay {
	if !visible {
		return nil
	}
	return &Overlay{
		LeftPct:   (100 - safeZoneWidthPct) / 2,
		TopPct:    (100 - safeZoneHeightPct) / 2,
		WidthPct:  safeZoneWidthPct,
		HeightPct: safeZoneHeightPct,
		Label:     SafeZoneLabel,
		Caption:   SafeZoneCaption,
	}
}

// PixelRect maps the overlay onto the reference canvas.
func (o Overlay) PixelRect() (x, y, w, h int) {
	x = int(o.LeftPct * CanvasWidth / 100)
	y = int(o.TopPct * CanvasHeight / 100)
	w = int(o.WidthPct * CanvasWidth / 100)
	h = int(o.HeightPct * CanvasHeight / 100)
	return x, y, w, h
}
