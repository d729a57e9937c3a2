package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrFunnelNotFound indicates the funnel content could not be loaded.
	ErrFunnelNotFound = errors.New("funnel not found")
	// ErrQuestionNotFound indicates a question ID or position is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid for the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidTransition is returned when an action does not apply to the current view.
	ErrInvalidTransition = errors.New("invalid funnel transition")
	// ErrInterstitialPending is returned when answering while a quote is on screen.
	ErrInterstitialPending = errors.New("interstitial must be dismissed first")
	// ErrInvalidFunnel indicates malformed funnel content.
	ErrInvalidFunnel = errors.New("invalid funnel content")
)

// ValidationErrors maps a lead form field to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "invalid lead form: " + strings.Join(fields, ", ")
}
