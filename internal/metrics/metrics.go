package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedbackSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_feedback_submitted_total",
		Help: "Feedback submissions posted to the clinic chat.",
	}, []string{"urgent"})

	PhoneAttached = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_feedback_phone_attached_total",
		Help: "Call-back phone numbers attached to earlier feedback.",
	})

	VoicesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_feedback_voices_total",
		Help: "Voice recordings relayed, by result.",
	}, []string{"result"})

	RelayFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_telegram_failures_total",
		Help: "Failed Telegram calls by operation.",
	}, []string{"operation"})

	BonusClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_bonus_claims_total",
		Help: "Bonus claim requests by bonus and whether it was a repeat.",
	}, []string{"bonus_id", "repeat"})
)
