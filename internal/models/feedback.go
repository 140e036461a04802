package models

import "time"

// MessageRef points at a message previously posted to the clinic chat.
// Zero means no message has been posted.
type MessageRef int

type FeedbackRecord struct {
	ID                string     `bson:"_id,omitempty" json:"-"`
	TelegramMessageID MessageRef `bson:"telegram_message_id" json:"telegramMessageId"`
	Rating            int        `bson:"rating" json:"rating"`
	Department        string     `bson:"department" json:"department"`
	Comment           string     `bson:"comment" json:"comment"`
	Phone             string     `bson:"phone" json:"phone"`
	Urgent            bool       `bson:"urgent" json:"urgent"`
	CreatedAt         time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updatedAt"`
}

// FeedbackPatch carries the fields to merge into a stored record.
// Nil fields are left untouched.
type FeedbackPatch struct {
	TelegramMessageID *MessageRef
	Rating            *int
	Department        *string
	Comment           *string
	Phone             *string
	Urgent            *bool
	CreatedAt         *time.Time
	UpdatedAt         *time.Time
}

// Apply merges the non-nil fields of p into r.
func (p FeedbackPatch) Apply(r *FeedbackRecord) {
	if p.TelegramMessageID != nil {
		r.TelegramMessageID = *p.TelegramMessageID
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Department != nil {
		r.Department = *p.Department
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	if p.Phone != nil {
		r.Phone = *p.Phone
	}
	if p.Urgent != nil {
		r.Urgent = *p.Urgent
	}
	if p.CreatedAt != nil {
		r.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		r.UpdatedAt = *p.UpdatedAt
	}
}

// NewFeedbackPatch builds the patch that writes every field of a freshly created record.
func NewFeedbackPatch(r FeedbackRecord) FeedbackPatch {
	return FeedbackPatch{
		TelegramMessageID: &r.TelegramMessageID,
		Rating:            &r.Rating,
		Department:        &r.Department,
		Comment:           &r.Comment,
		Phone:             &r.Phone,
		Urgent:            &r.Urgent,
		CreatedAt:         &r.CreatedAt,
		UpdatedAt:         &r.UpdatedAt,
	}
}
