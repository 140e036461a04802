package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"clinic-feedback/internal/models"
	"clinic-feedback/internal/telegram"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// EmailAlerter mails clinic management about urgent feedback through Resend.
type EmailAlerter struct {
	client *resend.Client
	from   string
	to     []string
}

func NewEmailAlerter(apiKey, from string, to []string) *EmailAlerter {
	return &EmailAlerter{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (a *EmailAlerter) AlertUrgent(ctx context.Context, feedbackID string, rec models.FeedbackRecord) error {
	params := &resend.SendEmailRequest{
		From:    a.from,
		To:      a.to,
		Subject: fmt.Sprintf("%s: %d/5", telegram.RatingLabel(rec.Rating), rec.Rating),
		Html:    alertHTML(feedbackID, rec),
		Tags:    []resend.Tag{{Name: "kind", Value: "urgent_feedback"}},
	}

	sent, err := a.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send urgent alert: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("feedback_id", feedbackID).Str("email_id", sent.Id).Msg("urgent alert sent")
	return nil
}

func alertHTML(feedbackID string, rec models.FeedbackRecord) string {
	department := rec.Department
	if strings.TrimSpace(department) == "" {
		department = "Kiritilmadi"
	}
	comment := rec.Comment
	if strings.TrimSpace(comment) == "" {
		comment = "Kiritilmadi"
	}
	return fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
			<h2 style="color: #b91c1c;">%s</h2>
			<p><b>Baho:</b> %d/5</p>
			<p><b>Bo‘lim:</b> %s</p>
			<p><b>Fikr:</b><br>%s</p>
			<p style="color: #888; font-size: 12px;">ID: %s · %s</p>
		</div>
	`,
		html.EscapeString(telegram.RatingLabel(rec.Rating)),
		rec.Rating,
		html.EscapeString(department),
		strings.ReplaceAll(html.EscapeString(comment), "\n", "<br>"),
		html.EscapeString(feedbackID),
		rec.CreatedAt.Format("2006-01-02 15:04 MST"),
	)
}
