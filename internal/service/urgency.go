package service

import "strings"

// DefaultUrgentKeywords mark a comment as an escalation: management,
// formal complaints, courts and prosecutors, rudeness or abuse, bribery.
// A leading space anchors a stem to the start of a word so that short
// stems do not fire inside unrelated words ("courteous", "prudent",
// "temporary").
var DefaultUrgentKeywords = []string{
	// Uzbek (Latin)
	"rahbariyat", "shikoyat", " sudga", " sudda", "prokuratura", "janjal",
	"qo'pol", "qo‘pol", "haqorat", " pora",
	// Uzbek (Cyrillic) and Russian
	"раҳбарият", "шикоят", "прокуратур", "руководств", "жалоб", " суд",
	"хамств", "оскорб", "взятк",
	// English
	"management", "complaint", " to court", " in court", "lawsuit", "lawyer",
	"prosecutor", " rude", "abuse", "insult", " bribe",
}

const urgentRatingThreshold = 2

// Classifier decides whether a submission needs escalation.
type Classifier struct {
	keywords []string
}

// NewClassifier lowercases and trims keywords; an empty list selects
// DefaultUrgentKeywords as they are.
func NewClassifier(keywords []string) Classifier {
	if len(keywords) == 0 {
		return Classifier{keywords: DefaultUrgentKeywords}
	}
	c := Classifier{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	return c
}

// IsUrgent reports rating <= 2 or a comment containing any keyword.
func (c Classifier) IsUrgent(rating int, comment string) bool {
	if rating <= urgentRatingThreshold {
		return true
	}
	// Whitespace runs collapse to one space and the text gets a leading
	// space, so word-anchored keywords also match at the very start.
	text := " " + strings.Join(strings.Fields(strings.ToLower(comment)), " ")
	for _, k := range c.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
