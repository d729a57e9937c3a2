package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"quiz-funnel/internal/domain"
)

// SessionRepository abstracts where visitor progress lives (in-memory, Redis, etc).
type SessionRepository interface {
	// Load returns the stored progress and whether it existed.
	Load(ctx context.Context, visitorID string) (domain.Progress, bool, error)
	Save(ctx context.Context, progress domain.Progress) error
	Delete(ctx context.Context, visitorID string) error
}

// FunnelRepository loads funnel content (from cache/backing store).
type FunnelRepository interface {
	GetFunnel(ctx context.Context, funnelID string) (domain.Funnel, error)
}

// LeadSink receives captured leads, typically a spreadsheet webhook.
type LeadSink interface {
	Send(ctx context.Context, record domain.LeadRecord) error
}

// ServiceConfig tunes a FunnelService. Zero values fall back to defaults.
type ServiceConfig struct {
	FunnelID        string
	DispatchTimeout time.Duration
	Location        *time.Location
	Now             func() time.Time
}

// FunnelService contains the funnel use cases: view transitions, scoring
// and lead capture.
type FunnelService struct {
	sessions  SessionRepository
	funnels   FunnelRepository
	sink      LeadSink
	validator *LeadValidator
	locks     *keyedMutex

	funnelID        string
	dispatchTimeout time.Duration
	loc             *time.Location
	now             func() time.Time

	inflight sync.WaitGroup
}

// NewFunnelService wires the use cases. sink may be nil, in which case leads
// are logged and dropped.
func NewFunnelService(sessions SessionRepository, funnels FunnelRepository, sink LeadSink, cfg ServiceConfig) *FunnelService {
	if cfg.FunnelID == "" {
		cfg.FunnelID = "default"
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FunnelService{
		sessions:        sessions,
		funnels:         funnels,
		sink:            sink,
		validator:       NewLeadValidator(),
		locks:           newKeyedMutex(),
		funnelID:        cfg.FunnelID,
		dispatchTimeout: cfg.DispatchTimeout,
		loc:             cfg.Location,
		now:             cfg.Now,
	}
}

// Funnel returns the content the service runs.
func (s *FunnelService) Funnel(ctx context.Context) (domain.Funnel, error) {
	return s.funnels.GetFunnel(ctx, s.funnelID)
}

// Current returns the visitor's progress, a fresh landing state for new visitors.
func (s *FunnelService) Current(ctx context.Context, visitorID string) (domain.Progress, error) {
	funnel, err := s.Funnel(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	return s.load(ctx, funnel, visitorID)
}

// Start moves the visitor from the landing screen into the quiz.
func (s *FunnelService) Start(ctx context.Context, visitorID string) (domain.Progress, error) {
	return s.mutate(ctx, visitorID, func(_ domain.Funnel, p domain.Progress) (domain.Progress, error) {
		return start(p)
	})
}

// Answer records the option for the current question and advances the quiz.
func (s *FunnelService) Answer(ctx context.Context, visitorID, optionID string) (domain.Progress, error) {
	return s.mutate(ctx, visitorID, func(f domain.Funnel, p domain.Progress) (domain.Progress, error) {
		return answer(f, p, optionID)
	})
}

// Continue dismisses the interstitial quote.
func (s *FunnelService) Continue(ctx context.Context, visitorID string) (domain.Progress, error) {
	return s.mutate(ctx, visitorID, func(_ domain.Funnel, p domain.Progress) (domain.Progress, error) {
		return dismiss(p)
	})
}

// Back returns to the previous question.
func (s *FunnelService) Back(ctx context.Context, visitorID string) (domain.Progress, error) {
	return s.mutate(ctx, visitorID, func(_ domain.Funnel, p domain.Progress) (domain.Progress, error) {
		return back(p)
	})
}

// Restart sends the visitor back to the landing screen with a clean slate.
func (s *FunnelService) Restart(ctx context.Context, visitorID string) (domain.Progress, error) {
	return s.mutate(ctx, visitorID, func(_ domain.Funnel, p domain.Progress) (domain.Progress, error) {
		return restart(p), nil
	})
}

// SubmitLead validates the gate form, forwards the lead and reveals the result.
// A domain.ValidationErrors error leaves the visitor on the gate.
func (s *FunnelService) SubmitLead(ctx context.Context, visitorID string, form domain.LeadForm) (domain.Progress, error) {
	var record domain.LeadRecord
	p, err := s.mutate(ctx, visitorID, func(f domain.Funnel, p domain.Progress) (domain.Progress, error) {
		if p.View != domain.ViewResultGate {
			return p, domain.ErrInvalidTransition
		}
		if err := s.validator.Validate(f, form); err != nil {
			return p, err
		}
		rec, err := BuildLeadRecord(f, form, p.Answers, p.Score, s.now())
		if err != nil {
			return p, err
		}
		record = rec
		return revealResult(p)
	})
	if err != nil {
		return p, err
	}
	s.dispatch(record)
	return p, nil
}

// CaptureLead is the stateless variant used by the JSON API: it scores the
// supplied answers, validates the form and forwards the lead.
func (s *FunnelService) CaptureLead(ctx context.Context, form domain.LeadForm, answers domain.Answers) (domain.Result, error) {
	funnel, err := s.Funnel(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.validator.Validate(funnel, form); err != nil {
		return domain.Result{}, err
	}
	score := Score(funnel, answers)
	record, err := BuildLeadRecord(funnel, form, answers, score, s.now())
	if err != nil {
		return domain.Result{}, err
	}
	s.dispatch(record)
	return Summarize(funnel, score), nil
}

// Evaluate scores an answer set without touching any session.
func (s *FunnelService) Evaluate(ctx context.Context, answers domain.Answers) (domain.Result, error) {
	funnel, err := s.Funnel(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	return Summarize(funnel, Score(funnel, answers)), nil
}

// Countdown is the weekly offer deadline in the configured location.
func (s *FunnelService) Countdown() domain.Countdown {
	return WeeklyCountdown(s.now(), s.loc)
}

// Close waits for in-flight lead dispatches or until ctx is done.
func (s *FunnelService) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FunnelService) mutate(ctx context.Context, visitorID string, fn func(domain.Funnel, domain.Progress) (domain.Progress, error)) (domain.Progress, error) {
	unlock := s.locks.lock(visitorID)
	defer unlock()

	funnel, err := s.Funnel(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	current, err := s.load(ctx, funnel, visitorID)
	if err != nil {
		return domain.Progress{}, err
	}
	next, err := fn(funnel, current)
	if err != nil {
		return current, err
	}
	next.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// load falls back to a fresh landing state when nothing is stored or the
// stored progress no longer fits the funnel content.
func (s *FunnelService) load(ctx context.Context, funnel domain.Funnel, visitorID string) (domain.Progress, error) {
	p, ok, err := s.sessions.Load(ctx, visitorID)
	if err != nil {
		return domain.Progress{}, err
	}
	if !ok || p.FunnelID != funnel.ID || p.Index < 0 || p.Index >= len(funnel.Questions) {
		return domain.NewProgress(visitorID, funnel.ID, s.now()), nil
	}
	if p.Answers == nil {
		p.Answers = domain.Answers{}
	}
	return p, nil
}

func (s *FunnelService) dispatch(record domain.LeadRecord) {
	if s.sink == nil {
		log.Printf("lead sink not configured, dropping lead (score=%d)", record.Score)
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()
		if err := s.sink.Send(ctx, record); err != nil {
			log.Printf("lead dispatch failed: %v", err)
			return
		}
		log.Printf("lead dispatched (score=%d)", record.Score)
	}()
}

// IsValidation reports whether err carries per-field form errors.
func IsValidation(err error) (domain.ValidationErrors, bool) {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
