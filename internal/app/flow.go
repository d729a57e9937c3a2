package app

import (
	"quiz-funnel/internal/domain"
)

// The transitions below are pure: they take a Progress by value and return the
// next one. The service is responsible for persistence and locking.

func start(p domain.Progress) (domain.Progress, error) {
	if p.View != domain.ViewLanding {
		return p, domain.ErrInvalidTransition
	}
	p.View = domain.ViewQuiz
	p.Index = 0
	p.Interstitial = domain.NoInterstitial
	p.Answers = domain.Answers{}
	p.Score = 0
	return p, nil
}

func answer(funnel domain.Funnel, p domain.Progress, optionID string) (domain.Progress, error) {
	if p.View != domain.ViewQuiz {
		return p, domain.ErrInvalidTransition
	}
	if p.ShowingInterstitial() {
		return p, domain.ErrInterstitialPending
	}
	if p.Index < 0 || p.Index >= len(funnel.Questions) {
		return p, domain.ErrQuestionNotFound
	}
	question := funnel.Questions[p.Index]
	if _, ok := question.Option(optionID); !ok {
		return p, domain.ErrOptionNotFound
	}

	answers := p.Answers.Clone()
	answers[question.ID] = optionID
	p.Answers = answers

	next := p.Index + 1
	if next >= len(funnel.Questions) {
		p.Score = Score(funnel, p.Answers)
		p.View = domain.ViewResultGate
		return p, nil
	}
	p.Index = next
	if _, ok := funnel.Quote(next); ok {
		p.Interstitial = next
	}
	return p, nil
}

func dismiss(p domain.Progress) (domain.Progress, error) {
	if p.View != domain.ViewQuiz || !p.ShowingInterstitial() {
		return p, domain.ErrInvalidTransition
	}
	p.Interstitial = domain.NoInterstitial
	return p, nil
}

func back(p domain.Progress) (domain.Progress, error) {
	if p.View != domain.ViewQuiz || p.ShowingInterstitial() || p.Index == 0 {
		return p, domain.ErrInvalidTransition
	}
	p.Index--
	return p, nil
}

func revealResult(p domain.Progress) (domain.Progress, error) {
	if p.View != domain.ViewResultGate {
		return p, domain.ErrInvalidTransition
	}
	p.View = domain.ViewResult
	return p, nil
}

func restart(p domain.Progress) domain.Progress {
	p.View = domain.ViewLanding
	p.Index = 0
	p.Interstitial = domain.NoInterstitial
	p.Answers = domain.Answers{}
	p.Score = 0
	return p
}
