package telegram

import (
	"context"
	"sync/atomic"

	"clinic-feedback/internal/models"

	"github.com/rs/zerolog"
)

// MockRelay implements Relay by logging messages instead of calling Telegram.
// It is used in development when no bot token is configured.
type MockRelay struct {
	next atomic.Int64
}

func NewMockRelay() *MockRelay {
	return &MockRelay{}
}

func (m *MockRelay) PostMessage(ctx context.Context, text string) (models.MessageRef, error) {
	ref := models.MessageRef(m.next.Add(1))
	zerolog.Ctx(ctx).Info().Int("message_id", int(ref)).Str("text", text).Msg("[mock telegram] message posted")
	return ref, nil
}

func (m *MockRelay) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	zerolog.Ctx(ctx).Info().Int("message_id", int(ref)).Str("text", text).Msg("[mock telegram] message edited")
	return nil
}

func (m *MockRelay) ReplyVoice(ctx context.Context, ref models.MessageRef, voice Voice) error {
	zerolog.Ctx(ctx).Info().
		Int("reply_to", int(ref)).
		Str("file", voice.Name).
		Int("bytes", len(voice.Data)).
		Msg("[mock telegram] voice posted")
	return nil
}
