// Package access decides whether the high quality tier has a credential and
// asks the hosting environment to let the user pick one.
package access

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

// Host is whatever environment the app runs in. Capabilities are optional
// and discovered with type assertions.
type Host any

type KeyChecker interface {
	HasSelectedAPIKey(ctx context.Context) (bool, error)
}

type KeySelector interface {
	OpenSelectKey(ctx context.Context) error
}

type Options struct {
	Host     Host
	CacheTTL time.Duration
	Logger   *slog.Logger
}

type Gate struct {
	host   Host
	cache  *cache.Cache
	logger *slog.Logger
}

const hasKeyCacheKey = "has_selected_key"

func New(opts Options) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var c *cache.Cache
	if opts.CacheTTL > 0 {
		c = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}

	return &Gate{
		host:   opts.Host,
		cache:  c,
		logger: logger,
	}
}

// HasCredential never fails: a missing capability or a host error reads as false.
func (g *Gate) HasCredential(ctx context.Context) bool {
	checker, ok := g.host.(KeyChecker)
	if !ok {
		return false
	}

	if g.cache != nil {
		if v, found := g.cache.Get(hasKeyCacheKey); found {
			return v.(bool)
		}
	}

	has, err := checker.HasSelectedAPIKey(ctx)
	if err != nil {
		g.logger.Warn("key check failed", "err", err)
		return false
	}

	if g.cache != nil {
		g.cache.SetDefault(hasKeyCacheKey, has)
	}
	return has
}

// RequestCredential opens the host's key selection flow if there is one.
// It does not wait for or report the outcome.
func (g *Gate) RequestCredential(ctx context.Context) {
	g.Invalidate()

	selector, ok := g.host.(KeySelector)
	if !ok {
		return
	}
	if err := selector.OpenSelectKey(ctx); err != nil {
		g.logger.Warn("open key selection failed", "err", err)
	}
}

func (g *Gate) Invalidate() {
	if g.cache != nil {
		g.cache.Delete(hasKeyCacheKey)
	}
}
