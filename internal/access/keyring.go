package access

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const paidKeyUser = "gemini-paid"

var ErrEmptyKey = errors.New("API key is empty")

// KeyringHost keeps the paid Gemini key in the OS keyring. Opening the
// selection flow only raises a prompt flag; the web page shows the key form
// while it is set.
type KeyringHost struct {
	service string

	mu      sync.Mutex
	pending bool
}

func NewKeyringHost(service string) *KeyringHost {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "clipcanvas"
	}
	return &KeyringHost{service: service}
}

func (h *KeyringHost) HasSelectedAPIKey(ctx context.Context) (bool, error) {
	key, err := keyring.Get(h.service, paidKeyUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(key) != "", nil
}

func (h *KeyringHost) OpenSelectKey(ctx context.Context) error {
	h.mu.Lock()
	h.pending = true
	h.mu.Unlock()
	return nil
}

func (h *KeyringHost) SelectionPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

func (h *KeyringHost) DismissSelection() {
	h.mu.Lock()
	h.pending = false
	h.mu.Unlock()
}

func (h *KeyringHost) SelectKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrEmptyKey
	}
	if err := keyring.Set(h.service, paidKeyUser, apiKey); err != nil {
		return err
	}
	h.DismissSelection()
	return nil
}

func (h *KeyringHost) ClearKey(ctx context.Context) error {
	err := keyring.Delete(h.service, paidKeyUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// PaidAPIKey makes the host usable as the image client's key source.
func (h *KeyringHost) PaidAPIKey(ctx context.Context) (string, bool) {
	key, err := keyring.Get(h.service, paidKeyUser)
	if err != nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}
