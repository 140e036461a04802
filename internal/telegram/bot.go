package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinic-feedback/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotRelay talks to the Telegram Bot API and posts into a single chat.
type BotRelay struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	username string
}

// NewBotRelay validates the token with getMe. chat may be a numeric chat id
// or a public channel username such as "@clinic_feedback". An empty endpoint
// selects the public Bot API.
func NewBotRelay(token, chat, endpoint string, timeout time.Duration) (*BotRelay, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}

	r := &BotRelay{api: api}
	chat = strings.TrimSpace(chat)
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		r.chatID = id
	} else {
		r.username = chat
	}
	return r, nil
}

func (r *BotRelay) PostMessage(ctx context.Context, text string) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ChannelUsername = r.username
	msg.ParseMode = tgbotapi.ModeHTML

	sent, err := r.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("sendMessage: %w", err)
	}
	if sent.MessageID == 0 {
		return 0, fmt.Errorf("sendMessage: empty message id")
	}
	return models.MessageRef(sent.MessageID), nil
}

func (r *BotRelay) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(r.chatID, int(ref), text)
	edit.ChannelUsername = r.username
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := r.api.Send(edit); err != nil {
		// Repeating the same phone re-renders identical text.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("editMessageText: %w", err)
	}
	return nil
}

func (r *BotRelay) ReplyVoice(ctx context.Context, ref models.MessageRef, voice Voice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := tgbotapi.NewVoice(r.chatID, tgbotapi.FileBytes{Name: voice.Name, Bytes: voice.Data})
	v.ChannelUsername = r.username
	v.ReplyToMessageID = int(ref)
	v.Caption = voice.Caption

	if _, err := r.api.Send(v); err != nil {
		return fmt.Errorf("sendVoice: %w", err)
	}
	return nil
}
