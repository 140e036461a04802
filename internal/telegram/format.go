package telegram

import (
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	LabelRedFlag  = "🚨 QIZIL CHIROQ"
	LabelNegative = "⚠️ SALBIY"
	LabelPositive = "✅ IJOBIY"

	notProvided = "Kiritilmadi"
)

// DefaultTagDisallowed strips everything outside the hashtag charset:
// ASCII word characters plus Cyrillic and Uzbek Cyrillic letters.
var DefaultTagDisallowed = regexp.MustCompile(`[^0-9a-z_а-яёқғўҳ]`)

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// Formatter renders feedback into the HTML message posted to the chat.
type Formatter struct {
	TagDisallowed *regexp.Regexp
}

func NewFormatter() Formatter {
	return Formatter{TagDisallowed: DefaultTagDisallowed}
}

type FeedbackMessage struct {
	Rating     int
	Department string
	Comment    string
	Phone      string
}

func RatingLabel(rating int) string {
	switch {
	case rating <= 2:
		return LabelRedFlag
	case rating == 3:
		return LabelNegative
	default:
		return LabelPositive
	}
}

// DepartmentTag turns a department name into a chat hashtag, e.g.
// "Bolalar bo'limi" -> "#bolalar_bolimi". Empty input yields "".
func (f Formatter) DepartmentTag(department string) string {
	if strings.TrimSpace(department) == "" {
		return ""
	}
	tag := whitespaceRun.ReplaceAllString(strings.ToLower(department), "_")
	disallowed := f.TagDisallowed
	if disallowed == nil {
		disallowed = DefaultTagDisallowed
	}
	return "#" + disallowed.ReplaceAllString(tag, "")
}

func (f Formatter) Text(m FeedbackMessage) string {
	dept := escape(orDefault(m.Department))
	if tag := f.DepartmentTag(m.Department); tag != "" {
		dept += " " + tag
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", RatingLabel(m.Rating))
	fmt.Fprintf(&b, "⭐ Baho: <b>%d/5</b>\n", m.Rating)
	fmt.Fprintf(&b, "🏥 Bo‘lim: %s\n", dept)
	fmt.Fprintf(&b, "📝 Fikr:\n%s\n", escape(orDefault(m.Comment)))
	if phone := strings.TrimSpace(m.Phone); phone != "" {
		fmt.Fprintf(&b, "📞 Aloqa: <b>%s</b>\n", escape(phone))
	}
	return strings.TrimSpace(b.String())
}

func VoiceCaption(n int) string {
	return fmt.Sprintf("🎤 Ovozli fikr #%d", n)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}
