package app

import (
	"math"

	"quiz-funnel/internal/domain"
)

// gaugeArc is the stroke length of the half-circle score gauge.
const gaugeArc = 126.0

// Score normalizes the selected weights against the best possible answers.
// Unanswered questions still count towards the denominator.
func Score(funnel domain.Funnel, answers domain.Answers) int {
	total, maxPossible := 0, 0
	for _, q := range funnel.Questions {
		maxPossible += q.MaxValue()
		if selected, ok := q.Option(answers[q.ID]); ok {
			total += selected.Value
		}
	}
	if maxPossible <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(maxPossible) * 100))
}

// TierFor buckets a percentage score.
func TierFor(score int) domain.Tier {
	switch {
	case score >= 80:
		return domain.TierHigh
	case score >= 50:
		return domain.TierMid
	default:
		return domain.TierLow
	}
}

// Summarize builds the result headline and gauge geometry for a score.
func Summarize(funnel domain.Funnel, score int) domain.Result {
	tier := TierFor(score)
	text := funnel.Result.Tiers.Low
	switch tier {
	case domain.TierHigh:
		text = funnel.Result.Tiers.High
	case domain.TierMid:
		text = funnel.Result.Tiers.Mid
	}
	return domain.Result{
		Score:      score,
		Tier:       tier,
		Text:       text,
		Confetti:   score > 50,
		DashOffset: gaugeArc - gaugeArc*float64(score)/100,
	}
}

// ProgressPercent is the share of questions already behind the visitor.
func ProgressPercent(funnel domain.Funnel, p domain.Progress) int {
	n := len(funnel.Questions)
	if n == 0 {
		return 0
	}
	pct := int(math.Round(float64(p.Index) / float64(n) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
