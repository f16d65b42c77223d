package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"clipcanvas/internal/banner"
	"clipcanvas/internal/gemini"
)

const NoSelection = -1

const (
	MsgKeyError       = "API Key error. Please re-select your key for High Quality mode."
	MsgGenericFailure = "Failed to generate banner. Please try again."
)

var (
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrIndexOutOfRange      = errors.New("banner index out of range")
)

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, highQuality bool) (string, error)
}

type AccessGate interface {
	HasCredential(ctx context.Context) bool
	RequestCredential(ctx context.Context)
}

type State struct {
	Loading      bool                     `json:"loading"`
	Error        string                   `json:"error,omitempty"`
	History      []banner.GeneratedBanner `json:"history"`
	CurrentIndex int                      `json:"current_index"`
	Config       banner.GenerationConfig  `json:"config"`
	ShowSafeZone bool                     `json:"show_safe_zone"`
}

// Current returns the selected banner, if any.
func (s State) Current() (banner.GeneratedBanner, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.History) {
		return banner.GeneratedBanner{}, false
	}
	return s.History[s.CurrentIndex], true
}

type Options struct {
	Generator ImageGenerator
	Gate      AccessGate
	Logger    *slog.Logger
	Now       func() time.Time
}

// Controller owns the single in-memory session. At most one generation is
// in flight; a second Generate call gets ErrGenerationInProgress.
type Controller struct {
	gen    ImageGenerator
	gate   AccessGate
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	loading      bool
	errMsg       string
	history      History
	current      int
	config       banner.GenerationConfig
	showSafeZone bool
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		gen:          opts.Generator,
		gate:         opts.Gate,
		logger:       logger,
		now:          now,
		current:      NoSelection,
		config:       banner.DefaultConfig(),
		showSafeZone: true,
	}
}

func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrGenerationInProgress
	}
	c.loading = true
	c.errMsg = ""
	cfg := c.config
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	// The selection flow gives no completion signal, so generation goes
	// ahead whether or not the user actually picked a key.
	if cfg.HighQuality && c.gate != nil && !c.gate.HasCredential(ctx) {
		c.gate.RequestCredential(ctx)
	}

	prompt := banner.ComposePrompt(cfg.Style, cfg.CustomPrompt)

	url, err := c.generateImage(ctx, prompt, cfg.HighQuality)
	if err != nil {
		c.logger.Error("banner generation failed", "err", err, "style", cfg.Style, "high_quality", cfg.HighQuality)

		if gemini.IsEntityNotFound(err) {
			c.setError(MsgKeyError)
			if c.gate != nil {
				c.gate.RequestCredential(ctx)
			}
			return nil
		}
		c.setError(MsgGenericFailure)
		return nil
	}

	c.mu.Lock()
	created := c.history.Prepend(url, prompt, c.now().UnixMilli())
	c.current = 0
	c.mu.Unlock()

	c.logger.Info("banner generated", "timestamp", created.Timestamp, "style", cfg.Style, "high_quality", cfg.HighQuality)
	return nil
}

func (c *Controller) generateImage(ctx context.Context, prompt string, highQuality bool) (string, error) {
	if c.gen == nil {
		return "", errors.New("image generator is not configured")
	}
	return c.gen.GenerateImage(ctx, prompt, highQuality)
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

func (c *Controller) SelectBanner(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= c.history.Len() {
		return ErrIndexOutOfRange
	}
	c.current = index
	return nil
}

func (c *Controller) SetStyle(style banner.Style) error {
	if !style.Valid() {
		return banner.ErrUnknownStyle
	}
	c.mu.Lock()
	c.config.Style = style
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetCustomPrompt(text string) {
	c.mu.Lock()
	c.config.CustomPrompt = text
	c.mu.Unlock()
}

func (c *Controller) SetHighQuality(on bool) {
	c.mu.Lock()
	c.config.HighQuality = on
	c.mu.Unlock()
}

func (c *Controller) ToggleHighQuality() {
	c.mu.Lock()
	c.config.HighQuality = !c.config.HighQuality
	c.mu.Unlock()
}

func (c *Controller) ToggleSafeZone() {
	c.mu.Lock()
	c.showSafeZone = !c.showSafeZone
	c.mu.Unlock()
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Loading:      c.loading,
		Error:        c.errMsg,
		History:      c.history.Clone(),
		CurrentIndex: c.current,
		Config:       c.config,
		ShowSafeZone: c.showSafeZone,
	}
}

func (c *Controller) Current() (banner.GeneratedBanner, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.history.At(c.current)
}

func (c *Controller) Find(timestamp int64) (banner.GeneratedBanner, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.history.Find(timestamp)
}
