// Package telegram shares finished banners to a fixed chat.
package telegram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipcanvas/internal/banner"
)

const maxCaptionBytes = 1024

// Sender is the slice of the bot API the publisher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	Token      string
	ChatID     int64
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Publisher struct {
	sender Sender
	chatID int64
	logger *slog.Logger
}

func New(opts Options) (*Publisher, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	return NewWithSender(bot, opts.ChatID, opts.Logger)
}

func NewWithSender(sender Sender, chatID int64, logger *slog.Logger) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("telegram sender is nil")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{sender: sender, chatID: chatID, logger: logger}, nil
}

// Share sends the banner as a document so Telegram does not recompress it.
func (p *Publisher) Share(b banner.GeneratedBanner) error {
	_, raw, err := banner.DecodeDataURL(b.URL)
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(p.chatID, tgbotapi.FileBytes{
		Name:  b.Filename(),
		Bytes: raw,
	})
	doc.Caption = truncateByBytes(b.Prompt, maxCaptionBytes)

	if _, err := p.sender.Send(doc); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	p.logger.Info("banner shared", "timestamp", b.Timestamp, "chat_id", p.chatID)
	return nil
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
