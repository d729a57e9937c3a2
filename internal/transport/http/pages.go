package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = map[string]*template.Template{
	"landing":      parseView("landing.html"),
	"question":     parseView("question.html"),
	"interstitial": parseView("interstitial.html"),
	"gate":         parseView("gate.html"),
	"result":       parseView("result.html"),
}

func parseView(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

type pageData struct {
	Funnel    domain.Funnel
	Progress  domain.Progress
	Question  domain.Question
	Number    int
	Total     int
	Percent   int
	Quote     domain.Quote
	Form      domain.LeadForm
	Errors    domain.ValidationErrors
	Result    domain.Result
	Countdown domain.Countdown
}

// PageHandler renders the funnel screens and applies form posts.
type PageHandler struct {
	service *app.FunnelService
	store   sessions.Store
}

func NewPageHandler(service *app.FunnelService, store sessions.Store) *PageHandler {
	return &PageHandler{service: service, store: store}
}

// Home renders whatever view the visitor is on.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	id, err := visitorID(h.store, w, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	funnel, err := h.service.Funnel(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.service.Current(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.render(w, http.StatusOK, funnel, p, domain.LeadForm{}, nil)
}

func (h *PageHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.Start)
}

func (h *PageHandler) Answer(w http.ResponseWriter, r *http.Request) {
	option := r.PostFormValue("option")
	h.apply(w, r, func(ctx context.Context, id string) (domain.Progress, error) {
		return h.service.Answer(ctx, id, option)
	})
}

func (h *PageHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.Back)
}

func (h *PageHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.Continue)
}

func (h *PageHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.service.Restart)
}

// Lead submits the gate form. Invalid input re-renders the gate with the
// typed values and per-field messages.
func (h *PageHandler) Lead(w http.ResponseWriter, r *http.Request) {
	id, err := visitorID(h.store, w, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	form := domain.LeadForm{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Country: r.PostFormValue("country"),
	}
	p, err := h.service.SubmitLead(r.Context(), id, form)
	if verrs, ok := app.IsValidation(err); ok {
		funnel, ferr := h.service.Funnel(r.Context())
		if ferr != nil {
			h.fail(w, ferr)
			return
		}
		h.render(w, http.StatusUnprocessableEntity, funnel, p, form, verrs)
		return
	}
	h.redirect(w, r, err)
}

func (h *PageHandler) apply(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (domain.Progress, error)) {
	id, err := visitorID(h.store, w, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	_, err = fn(r.Context(), id)
	h.redirect(w, r, err)
}

// redirect sends the visitor home after a transition. Rejected transitions
// come from stale pages or double submits and are not errors for the visitor.
func (h *PageHandler) redirect(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInterstitialPending),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		log.Printf("rejected transition %s: %v", r.URL.Path, err)
	default:
		h.fail(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, funnel domain.Funnel, p domain.Progress, form domain.LeadForm, verrs domain.ValidationErrors) {
	data := pageData{Funnel: funnel, Progress: p, Form: form, Errors: verrs, Total: len(funnel.Questions)}
	name := "landing"
	switch p.View {
	case domain.ViewQuiz:
		if quote, ok := funnel.Quote(p.Interstitial); ok && p.ShowingInterstitial() {
			name = "interstitial"
			data.Quote = quote
			break
		}
		name = "question"
		data.Question = funnel.Questions[p.Index]
		data.Number = p.Index + 1
		data.Percent = app.ProgressPercent(funnel, p)
	case domain.ViewResultGate:
		name = "gate"
	case domain.ViewResult:
		name = "result"
		data.Result = app.Summarize(funnel, p.Score)
		data.Countdown = h.service.Countdown()
	}

	var buf bytes.Buffer
	if err := views[name].ExecuteTemplate(&buf, "base", data); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *PageHandler) fail(w http.ResponseWriter, err error) {
	log.Printf("page error: %v", err)
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrFunnelNotFound) {
		status = http.StatusNotFound
	}
	http.Error(w, http.StatusText(status), status)
}
