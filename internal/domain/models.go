package domain

import (
	"fmt"
	"time"
)

// Option is one selectable answer with its scoring weight.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Emoji string `json:"emoji" yaml:"emoji"`
	Value int    `json:"value" yaml:"value"`
}

// Question models a single quiz step.
type Question struct {
	ID      int      `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// Option returns the option with the given ID.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// MaxValue is the highest option weight, 0 for a question without options.
func (q Question) MaxValue() int {
	if len(q.Options) == 0 {
		return 0
	}
	max := q.Options[0].Value
	for _, opt := range q.Options[1:] {
		if opt.Value > max {
			max = opt.Value
		}
	}
	return max
}

// Quote is the motivational interstitial shown between questions.
type Quote struct {
	Text     string `json:"text" yaml:"text"`
	Author   string `json:"author" yaml:"author"`
	Role     string `json:"role" yaml:"role"`
	ImageURL string `json:"imageUrl" yaml:"image_url"`
}

// FAQ is one question and answer pair on the result page.
type FAQ struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Country is a selectable entry of the gate's country list.
type Country struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// CountryGroup renders as one optgroup in the country select.
type CountryGroup struct {
	Label     string    `json:"label" yaml:"label"`
	Countries []Country `json:"countries" yaml:"countries"`
}

// DerivedFields names the questions whose answer texts are copied into the lead record.
type DerivedFields struct {
	Experience int `json:"experience" yaml:"experience"`
	Commission int `json:"commission" yaml:"commission"`
}

// SocialProof holds the targets the result page counters animate towards.
type SocialProof struct {
	Users        int `json:"users" yaml:"users"`
	People       int `json:"people" yaml:"people"`
	Satisfaction int `json:"satisfaction" yaml:"satisfaction"`
}

// Bio introduces the coach behind the offer.
type Bio struct {
	Name     string `json:"name" yaml:"name"`
	Role     string `json:"role" yaml:"role"`
	ImageURL string `json:"imageUrl" yaml:"image_url"`
	Text     string `json:"text" yaml:"text"`
}

// TierTexts holds the result headline for each score tier.
type TierTexts struct {
	High string `json:"high" yaml:"high"`
	Mid  string `json:"mid" yaml:"mid"`
	Low  string `json:"low" yaml:"low"`
}

// ResultContent is the copy and media of the result page.
type ResultContent struct {
	VideoURL       string      `json:"videoUrl" yaml:"video_url"`
	CTAURL         string      `json:"ctaUrl" yaml:"cta_url"`
	CTAKeyword     string      `json:"ctaKeyword" yaml:"cta_keyword"`
	GateImageURL   string      `json:"gateImageUrl" yaml:"gate_image_url"`
	GuaranteeImage string      `json:"guaranteeImage" yaml:"guarantee_image"`
	Guarantee      string      `json:"guarantee" yaml:"guarantee"`
	ValueProps     []string    `json:"valueProps" yaml:"value_props"`
	Bio            Bio         `json:"bio" yaml:"bio"`
	Tiers          TierTexts   `json:"tiers" yaml:"tiers"`
	Proof          SocialProof `json:"proof" yaml:"proof"`
}

// Funnel is the complete content of one quiz funnel.
type Funnel struct {
	ID        string         `json:"id" yaml:"id"`
	Title     string         `json:"title" yaml:"title"`
	Tagline   string         `json:"tagline" yaml:"tagline"`
	Questions []Question     `json:"questions" yaml:"questions"`
	Quotes    map[int]Quote  `json:"quotes" yaml:"quotes"` // keyed by question position
	FAQs      []FAQ          `json:"faqs" yaml:"faqs"`
	Countries []CountryGroup `json:"countries" yaml:"countries"`
	Derived   DerivedFields  `json:"derived" yaml:"derived"`
	Result    ResultContent  `json:"result" yaml:"result"`
}

// Question returns the question with the given ID.
func (f Funnel) Question(id int) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Quote returns the interstitial shown before the question at position.
func (f Funnel) Quote(position int) (Quote, bool) {
	q, ok := f.Quotes[position]
	return q, ok
}

func (f Funnel) HasCountry(code string) bool {
	if code == "" {
		return false
	}
	for _, group := range f.Countries {
		for _, c := range group.Countries {
			if c.Code == code {
				return true
			}
		}
	}
	return false
}

// Validate checks the structural invariants the quiz engine relies on.
func (f Funnel) Validate() error {
	if len(f.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidFunnel)
	}
	seen := make(map[int]struct{}, len(f.Questions))
	for _, q := range f.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidFunnel, q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidFunnel, q.ID)
		}
		opts := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if opt.ID == "" {
				return fmt.Errorf("%w: question %d has an option without id", ErrInvalidFunnel, q.ID)
			}
			if _, dup := opts[opt.ID]; dup {
				return fmt.Errorf("%w: question %d repeats option %q", ErrInvalidFunnel, q.ID, opt.ID)
			}
			opts[opt.ID] = struct{}{}
		}
	}
	for pos := range f.Quotes {
		if pos < 1 || pos >= len(f.Questions) {
			return fmt.Errorf("%w: quote at position %d is outside the quiz", ErrInvalidFunnel, pos)
		}
	}
	return nil
}

// View is one of the four mutually exclusive funnel screens.
type View string

const (
	ViewLanding    View = "landing"
	ViewQuiz       View = "quiz"
	ViewResultGate View = "result_gate"
	ViewResult     View = "result"
)

// NoInterstitial marks a Progress that is showing a question card.
const NoInterstitial = -1

// Answers maps question ID to the selected option ID.
type Answers map[int]string

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Progress is a visitor's position in the funnel.
type Progress struct {
	VisitorID    string    `json:"visitorId"`
	FunnelID     string    `json:"funnelId"`
	View         View      `json:"view"`
	Index        int       `json:"index"`
	Interstitial int       `json:"interstitial"`
	Answers      Answers   `json:"answers"`
	Score        int       `json:"score"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewProgress returns a visitor sitting on the landing screen.
func NewProgress(visitorID, funnelID string, now time.Time) Progress {
	return Progress{
		VisitorID:    visitorID,
		FunnelID:     funnelID,
		View:         ViewLanding,
		Interstitial: NoInterstitial,
		Answers:      Answers{},
		UpdatedAt:    now,
	}
}

func (p Progress) ShowingInterstitial() bool {
	return p.Interstitial != NoInterstitial
}

// LeadForm is the raw contact data typed into the gate.
type LeadForm struct {
	Name    string `json:"name" validate:"min_trimmed=3"`
	Email   string `json:"email" validate:"lead_email"`
	Phone   string `json:"phone" validate:"lead_phone"`
	Country string `json:"country" validate:"required"`
}

// LeadRecord is the payload forwarded to the spreadsheet endpoint.
type LeadRecord struct {
	Timestamp   string `json:"timestamp"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Country     string `json:"country"`
	Score       int    `json:"score"`
	Experience  string `json:"experience"`
	Commission  string `json:"commission"`
	FullAnswers string `json:"full_answers"`
}

// Countdown is the time left until the weekly deadline.
type Countdown struct {
	Days    int `json:"d"`
	Hours   int `json:"h"`
	Minutes int `json:"m"`
	Seconds int `json:"s"`
}

// Tier buckets a score for the result headline.
type Tier string

const (
	TierHigh Tier = "high"
	TierMid  Tier = "mid"
	TierLow  Tier = "low"
)

// Result summarizes the score presentation.
type Result struct {
	Score      int     `json:"score"`
	Tier       Tier    `json:"tier"`
	Text       string  `json:"text"`
	Confetti   bool    `json:"confetti"`
	DashOffset float64 `json:"dashOffset"`
}
