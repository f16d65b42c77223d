// Package web serves the banner page, its JSON API and static assets over
// a single Generation Session Controller.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"clipcanvas/internal/banner"
	"clipcanvas/internal/session"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Controller is the part of the session controller the handlers drive.
type Controller interface {
	Generate(ctx context.Context) error
	SelectBanner(index int) error
	SetStyle(style banner.Style) error
	SetCustomPrompt(text string)
	SetHighQuality(on bool)
	ToggleSafeZone()
	Snapshot() session.State
	Find(timestamp int64) (banner.GeneratedBanner, bool)
}

// KeyStore manages the paid key behind the high quality tier.
type KeyStore interface {
	SelectionPending() bool
	DismissSelection()
	SelectKey(ctx context.Context, apiKey string) error
	ClearKey(ctx context.Context) error
}

type Sharer interface {
	Share(b banner.GeneratedBanner) error
}

type Invalidator interface {
	Invalidate()
}

type Options struct {
	Controller            Controller
	Keys                  KeyStore
	Access                Invalidator
	Sharer                Sharer
	RequestTimeout        time.Duration
	GenerateRatePerMinute int
	Logger                *slog.Logger
}

type Server struct {
	ctrl     Controller
	keys     KeyStore
	access   Invalidator
	sharer   Sharer
	timeout  time.Duration
	limiter  *rate.Limiter
	validate *validator.Validate
	page     *template.Template
	static   fs.FS
	logger   *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("controller is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 240 * time.Second
	}

	perMinute := opts.GenerateRatePerMinute
	if perMinute < 1 {
		perMinute = 10
	}

	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(assets, "templates/index.html")
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}

	return &Server{
		ctrl:     opts.Controller,
		keys:     opts.Keys,
		access:   opts.Access,
		sharer:   opts.Sharer,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		validate: newValidator(),
		page:     page,
		static:   staticSub,
		logger:   logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.Handle("POST /generate", s.limitGenerate(http.HandlerFunc(s.handleGenerateForm)))
	mux.HandleFunc("POST /select", s.handleSelectForm)
	mux.HandleFunc("POST /safe-zone", s.handleSafeZoneForm)
	mux.HandleFunc("POST /key", s.handleKeyForm)
	mux.HandleFunc("POST /key/clear", s.handleKeyClearForm)
	mux.HandleFunc("POST /key/dismiss", s.handleKeyDismissForm)
	mux.HandleFunc("GET /banners/{timestamp}/download", s.handleDownload)
	mux.HandleFunc("POST /banners/{timestamp}/share", s.handleShareForm)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/styles", s.handleStyles)
	mux.HandleFunc("GET /api/safe-zone", s.handleSafeZone)
	mux.HandleFunc("PUT /api/config", s.handleConfig)
	mux.Handle("POST /api/generate", s.limitGenerate(http.HandlerFunc(s.handleGenerate)))
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("GET /api/banners/{timestamp}/download", s.handleDownload)
	mux.HandleFunc("POST /api/banners/{timestamp}/share", s.handleShare)

	return withLogging(mux, s.logger)
}

// generate runs one attempt under the request timeout.
func (s *Server) generate(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	return s.ctrl.Generate(ctx)
}

// overlayFor applies the page rule: the safe zone shows over a banner or
// a pending generation, never over the empty state.
func overlayFor(st session.State) *banner.Overlay {
	_, hasCurrent := st.Current()
	return banner.SafeZone(st.ShowSafeZone && (hasCurrent || st.Loading))
}

func (s *Server) keyPrompt() bool {
	return s.keys != nil && s.keys.SelectionPending()
}

func (s *Server) invalidateAccess() {
	if s.access != nil {
		s.access.Invalidate()
	}
}
