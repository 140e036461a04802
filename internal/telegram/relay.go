package telegram

import (
	"context"

	"clinic-feedback/internal/models"
)

// Relay posts feedback to the clinic chat and amends it later. Message
// references are opaque to callers.
type Relay interface {
	PostMessage(ctx context.Context, text string) (models.MessageRef, error)
	EditMessage(ctx context.Context, ref models.MessageRef, text string) error
	// ReplyVoice sends a voice recording as a reply to a posted message.
	ReplyVoice(ctx context.Context, ref models.MessageRef, voice Voice) error
}

type Voice struct {
	Name    string
	Data    []byte
	Caption string
}
