package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/domain"
)

// APIHandler exposes the stateless JSON surface for client-rendered pages.
type APIHandler struct {
	service *app.FunnelService
}

func NewAPIHandler(service *app.FunnelService) *APIHandler {
	return &APIHandler{service: service}
}

type publicOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

type publicQuestion struct {
	ID      int            `json:"id"`
	Text    string         `json:"text"`
	Options []publicOption `json:"options"`
}

// publicFunnel is the content minus option weights.
type publicFunnel struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Tagline   string                `json:"tagline"`
	Questions []publicQuestion      `json:"questions"`
	Quotes    map[int]domain.Quote  `json:"quotes"`
	FAQs      []domain.FAQ          `json:"faqs"`
	Countries []domain.CountryGroup `json:"countries"`
	Result    domain.ResultContent  `json:"result"`
}

func toPublic(f domain.Funnel) publicFunnel {
	out := publicFunnel{
		ID:        f.ID,
		Title:     f.Title,
		Tagline:   f.Tagline,
		Questions: make([]publicQuestion, 0, len(f.Questions)),
		Quotes:    f.Quotes,
		FAQs:      f.FAQs,
		Countries: f.Countries,
		Result:    f.Result,
	}
	for _, q := range f.Questions {
		pq := publicQuestion{ID: q.ID, Text: q.Text, Options: make([]publicOption, 0, len(q.Options))}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, publicOption{ID: opt.ID, Text: opt.Text, Emoji: opt.Emoji})
		}
		out.Questions = append(out.Questions, pq)
	}
	return out
}

func (h *APIHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.service.Funnel(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublic(funnel))
}

type scoreRequest struct {
	Answers domain.Answers `json:"answers"`
}

func (h *APIHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.Evaluate(r.Context(), req.Answers)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type leadRequest struct {
	domain.LeadForm
	Answers domain.Answers `json:"answers"`
}

// Leads validates and forwards a lead. Forwarding happens in the background,
// so 202 means accepted rather than delivered.
func (h *APIHandler) Leads(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.service.CaptureLead(r.Context(), req.LeadForm, req.Answers)
	if verrs, ok := app.IsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]domain.ValidationErrors{"errors": verrs})
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *APIHandler) Countdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Countdown())
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrFunnelNotFound) {
		errorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	log.Printf("api error: %v", err)
	errorJSON(w, http.StatusInternalServerError, "internal error")
}
