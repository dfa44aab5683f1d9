package answers

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	"github.com/hificopy/formflow/pkg/rules"
)

// Error codes carried by domain.ValidationError.
const (
	CodeRequired      = "required"
	CodeEmail         = "email"
	CodeBusinessEmail = "business_email"
	CodePhone         = "phone"
	CodeNumber        = "number"
	CodeRange         = "range"
	CodeLength        = "length"
	CodeDate          = "date"
	CodeRating        = "rating"
	CodeChoice        = "choice"
	CodeSettings      = "settings"
)

// DefaultFreeEmailDomains is the fallback deny-list for business-email questions.
var DefaultFreeEmailDomains = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"live.com", "icloud.com", "aol.com", "proton.me", "protonmail.com", "gmx.com",
}

// Policy holds the product-level knobs of answer validation.
type Policy struct {
	// FreeEmailDomains are rejected by business-email questions. Matching is case-insensitive.
	FreeEmailDomains []string
	// DateLayouts are tried in order for date questions.
	DateLayouts []string
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		FreeEmailDomains: DefaultFreeEmailDomains,
		DateLayouts:      []string{"2006-01-02", time.RFC3339},
	}
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,20}$`)

// Validate checks value against the rules q declares. It returns a
// *domain.ValidationError or nil. An unanswered optional question is valid.
func Validate(q *domain.Question, value any, policy Policy) error {
	if isBlank(value) {
		if q.Required {
			return fail(q, CodeRequired, "an answer is required")
		}
		return nil
	}

	settings, err := DecodeSettings(q.Settings)
	if err != nil {
		return fail(q, CodeSettings, err.Error())
	}

	kind := settings.Validation
	switch q.Type {
	case domain.QuestionEmail:
		if kind != KindBusinessEmail {
			kind = KindEmail
		}
	case domain.QuestionPhone:
		kind = KindPhone
	case domain.QuestionNumber:
		kind = KindNumber
	case domain.QuestionDate:
		return validateDate(q, value, policy)
	case domain.QuestionRating:
		return validateRating(q, value)
	case domain.QuestionSingleChoice:
		return validateChoice(q, []any{value}, settings)
	case domain.QuestionMultiChoice:
		list, ok := asList(value)
		if !ok {
			return fail(q, CodeChoice, "expected a list of options")
		}
		return validateChoice(q, list, settings)
	}

	text := rules.Stringify(value)
	if err := validateLength(q, text, settings); err != nil {
		return err
	}

	switch kind {
	case KindEmail:
		return validateEmail(q, text)
	case KindBusinessEmail:
		if err := validateEmail(q, text); err != nil {
			return err
		}
		return validateBusinessDomain(q, text, policy)
	case KindPhone:
		if !phonePattern.MatchString(strings.TrimSpace(text)) {
			return fail(q, CodePhone, "not a valid phone number")
		}
	case KindNumber:
		return validateNumber(q, value, settings)
	}
	return nil
}

// ValidateAll validates every answered question of the flow and the required
// questions in ids. It returns the first failure in question order.
func ValidateAll(questions []domain.Question, values domain.Answers, ids []string, policy Policy) error {
	required := make(map[string]bool, len(ids))
	for _, id := range ids {
		required[id] = true
	}
	for i := range questions {
		q := &questions[i]
		v, answered := values[q.ID]
		if !answered && !required[q.ID] {
			continue
		}
		if err := Validate(q, v, policy); err != nil {
			return err
		}
	}
	return nil
}

func validateLength(q *domain.Question, text string, s Settings) error {
	n := len([]rune(text))
	if s.MinLength > 0 && n < s.MinLength {
		return fail(q, CodeLength, fmt.Sprintf("must be at least %d characters", s.MinLength))
	}
	if s.MaxLength > 0 && n > s.MaxLength {
		return fail(q, CodeLength, fmt.Sprintf("must be at most %d characters", s.MaxLength))
	}
	return nil
}

func validateEmail(q *domain.Question, text string) error {
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != strings.TrimSpace(text) || !strings.Contains(domainOf(addr.Address), ".") {
		return fail(q, CodeEmail, "not a valid email address")
	}
	return nil
}

func validateBusinessDomain(q *domain.Question, text string, policy Policy) error {
	host := strings.ToLower(domainOf(text))
	for _, d := range policy.FreeEmailDomains {
		if host == strings.ToLower(d) {
			return fail(q, CodeBusinessEmail, "please use your work email")
		}
	}
	return nil
}

func validateNumber(q *domain.Question, value any, s Settings) error {
	n, ok := rules.ToNumber(value)
	if !ok {
		return fail(q, CodeNumber, "not a number")
	}
	if s.Min != nil && n < *s.Min {
		return fail(q, CodeRange, fmt.Sprintf("must be at least %v", *s.Min))
	}
	if s.Max != nil && n > *s.Max {
		return fail(q, CodeRange, fmt.Sprintf("must be at most %v", *s.Max))
	}
	return nil
}

func validateDate(q *domain.Question, value any, policy Policy) error {
	if _, ok := value.(time.Time); ok {
		return nil
	}
	text := strings.TrimSpace(rules.Stringify(value))
	for _, layout := range policy.DateLayouts {
		if _, err := time.Parse(layout, text); err == nil {
			return nil
		}
	}
	return fail(q, CodeDate, "not a valid date")
}

func validateRating(q *domain.Question, value any) error {
	n, ok := rules.ToNumber(value)
	if !ok || n != float64(int(n)) || n < domain.RatingMin || n > domain.RatingMax {
		return fail(q, CodeRating, fmt.Sprintf("rating must be a whole number between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	return nil
}

func validateChoice(q *domain.Question, picked []any, s Settings) error {
	if s.MaxSelections > 0 && len(picked) > s.MaxSelections {
		return fail(q, CodeChoice, fmt.Sprintf("pick at most %d options", s.MaxSelections))
	}
	for _, p := range picked {
		opt := rules.Stringify(p)
		if !q.HasOption(opt) {
			return fail(q, CodeChoice, fmt.Sprintf("%q is not one of the options", opt))
		}
	}
	return nil
}

func fail(q *domain.Question, code, msg string) error {
	return &domain.ValidationError{QuestionID: q.ID, Code: code, Message: msg}
}

func domainOf(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return ""
	}
	return addr[at+1:]
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
