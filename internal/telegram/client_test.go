package telegram

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipcanvas/internal/banner"
)

type senderMock struct {
	SendFunc func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	sent     []tgbotapi.Chattable
}

func (m *senderMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	if m.SendFunc == nil {
		return tgbotapi.Message{}, nil
	}
	return m.SendFunc(c)
}

func TestNewWithSender_Validation(t *testing.T) {
	_, err := NewWithSender(nil, 1, nil)
	assert.Error(t, err)

	_, err = NewWithSender(&senderMock{}, 0, nil)
	assert.Error(t, err)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestShare_SendsDocument(t *testing.T) {
	sender := &senderMock{}
	p, err := NewWithSender(sender, -100, nil)
	require.NoError(t, err)

	b := banner.GeneratedBanner{
		URL:       banner.EncodePNGDataURL(base64.StdEncoding.EncodeToString([]byte("png"))),
		Prompt:    "Gaming style: neon",
		Timestamp: 1700000000000,
	}
	require.NoError(t, p.Share(b))

	require.Len(t, sender.sent, 1)
	doc, ok := sender.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), doc.ChatID)
	assert.Equal(t, "Gaming style: neon", doc.Caption)

	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "youtube-banner-1700000000000.png", file.Name)
	assert.Equal(t, []byte("png"), file.Bytes)
}

func TestShare_Errors(t *testing.T) {
	sender := &senderMock{SendFunc: func(tgbotapi.Chattable) (tgbotapi.Message, error) {
		return tgbotapi.Message{}, errors.New("chat not found")
	}}
	p, err := NewWithSender(sender, 7, nil)
	require.NoError(t, err)

	err = p.Share(banner.GeneratedBanner{URL: "data:image/png;base64,cG5n"})
	assert.ErrorContains(t, err, "chat not found")

	err = p.Share(banner.GeneratedBanner{URL: "data:image/png;base64,###"})
	assert.Error(t, err)
	assert.Len(t, sender.sent, 1)
}

func TestTruncateByBytes(t *testing.T) {
	assert.Equal(t, "short", truncateByBytes("short", 10))
	assert.Equal(t, "ab", truncateByBytes("abcdef", 2))
	assert.Equal(t, "ü", truncateByBytes("üü", 3))
	long := strings.Repeat("x", 2000)
	assert.Len(t, truncateByBytes(long, maxCaptionBytes), maxCaptionBytes)
}
