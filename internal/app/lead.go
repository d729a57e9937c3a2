package app

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"quiz-funnel/internal/domain"
)

const (
	msgName    = "الاسم يجب أن يكون 3 أحرف على الأقل"
	msgEmail   = "يرجى إدخال بريد إلكتروني صحيح"
	msgPhone   = "يرجى إدخال رقم هاتف صحيح"
	msgCountry = "يرجى اختيار الدولة"

	// notAnswered fills derived lead fields whose question was skipped.
	notAnswered = "لم يجب"

	isoMillis = "2006-01-02T15:04:05.000Z"
)

var (
	// \s in RE2 is ASCII only; browsers also treat Unicode spaces as whitespace.
	emailPattern = regexp.MustCompile(`^[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+@[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+\.[^\s\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+$`)
	phonePattern = regexp.MustCompile(`^\d{8,}$`)

	fieldMessages = map[string]string{
		"name":    msgName,
		"email":   msgEmail,
		"phone":   msgPhone,
		"country": msgCountry,
	}
)

// LeadValidator checks the gate form against the funnel's rules.
type LeadValidator struct {
	validate *validator.Validate
}

func NewLeadValidator() *LeadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("min_trimmed", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf16Len(strings.TrimFunc(fl.Field().String(), isSpace)) >= n
	})
	_ = v.RegisterValidation("lead_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("lead_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &LeadValidator{validate: v}
}

// Validate returns nil or domain.ValidationErrors keyed by form field.
func (lv *LeadValidator) Validate(funnel domain.Funnel, form domain.LeadForm) error {
	errs := domain.ValidationErrors{}

	err := lv.validate.Struct(form)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs[fe.Field()] = fieldMessages[fe.Field()]
		}
	} else if err != nil {
		return err
	}

	if _, flagged := errs["country"]; !flagged && !funnel.HasCountry(form.Country) {
		errs["country"] = msgCountry
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BuildLeadRecord shapes a validated form for the spreadsheet.
func BuildLeadRecord(funnel domain.Funnel, form domain.LeadForm, answers domain.Answers, score int, now time.Time) (domain.LeadRecord, error) {
	if answers == nil {
		answers = domain.Answers{}
	}
	full, err := json.Marshal(answers)
	if err != nil {
		return domain.LeadRecord{}, err
	}
	return domain.LeadRecord{
		Timestamp:   now.UTC().Format(isoMillis),
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		Country:     form.Country,
		Score:       score,
		Experience:  answerText(funnel, answers, funnel.Derived.Experience),
		Commission:  answerText(funnel, answers, funnel.Derived.Commission),
		FullAnswers: string(full),
	}, nil
}

func answerText(funnel domain.Funnel, answers domain.Answers, questionID int) string {
	q, ok := funnel.Question(questionID)
	if !ok {
		return notAnswered
	}
	opt, ok := q.Option(answers[questionID])
	if !ok {
		return notAnswered
	}
	return opt.Text
}

// utf16Len measures length in UTF-16 code units, the unit browsers report
// for string length, so astral characters count twice.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
