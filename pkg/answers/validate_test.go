package answers_test

import (
	"errors"
	"testing"

	"github.com/hificopy/formflow/pkg/answers"
	"github.com/hificopy/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	policy := answers.DefaultPolicy()

	tests := []struct {
		name     string
		question domain.Question
		value    any
		code     string
	}{
		{"Optional blank", domain.Question{ID: "q", Type: domain.QuestionShortText}, "", ""},
		{"Required blank", domain.Question{ID: "q", Type: domain.QuestionShortText, Required: true}, "  ", answers.CodeRequired},
		{"Required empty list", domain.Question{ID: "q", Type: domain.QuestionMultiChoice, Required: true}, []any{}, answers.CodeRequired},
		{"Email ok", domain.Question{ID: "q", Type: domain.QuestionEmail}, "ana@acme.io", ""},
		{"Email bad", domain.Question{ID: "q", Type: domain.QuestionEmail}, "ana@", answers.CodeEmail},
		{"Email with display name", domain.Question{ID: "q", Type: domain.QuestionEmail}, "Ana <ana@acme.io>", answers.CodeEmail},
		{
			"Business email rejects free domain",
			domain.Question{ID: "q", Type: domain.QuestionEmail, Settings: map[string]any{"validation": "business-email"}},
			"ana@Gmail.com", answers.CodeBusinessEmail,
		},
		{
			"Business email on short text",
			domain.Question{ID: "q", Type: domain.QuestionShortText, Settings: map[string]any{"validation": "business-email"}},
			"ana@acme.io", "",
		},
		{"Phone ok", domain.Question{ID: "q", Type: domain.QuestionPhone}, "+1 (555) 010-2000", ""},
		{"Phone bad", domain.Question{ID: "q", Type: domain.QuestionPhone}, "call me", answers.CodePhone},
		{"Number ok", domain.Question{ID: "q", Type: domain.QuestionNumber}, "42", ""},
		{"Number bad", domain.Question{ID: "q", Type: domain.QuestionNumber}, "many", answers.CodeNumber},
		{
			"Number below min",
			domain.Question{ID: "q", Type: domain.QuestionNumber, Settings: map[string]any{"min": "10"}},
			float64(3), answers.CodeRange,
		},
		{"Date ok", domain.Question{ID: "q", Type: domain.QuestionDate}, "2024-02-29", ""},
		{"Date bad", domain.Question{ID: "q", Type: domain.QuestionDate}, "2023-02-29", answers.CodeDate},
		{"Rating ok", domain.Question{ID: "q", Type: domain.QuestionRating}, float64(5), ""},
		{"Rating out of range", domain.Question{ID: "q", Type: domain.QuestionRating}, 6, answers.CodeRating},
		{"Rating fractional", domain.Question{ID: "q", Type: domain.QuestionRating}, 2.5, answers.CodeRating},
		{"Single choice ok", domain.Question{ID: "q", Type: domain.QuestionSingleChoice, Options: []string{"A", "B"}}, "B", ""},
		{"Single choice unknown", domain.Question{ID: "q", Type: domain.QuestionSingleChoice, Options: []string{"A"}}, "Z", answers.CodeChoice},
		{"Multi choice ok", domain.Question{ID: "q", Type: domain.QuestionMultiChoice, Options: []string{"A", "B"}}, []any{"A", "B"}, ""},
		{"Multi choice scalar", domain.Question{ID: "q", Type: domain.QuestionMultiChoice, Options: []string{"A"}}, "A", answers.CodeChoice},
		{
			"Multi choice too many",
			domain.Question{ID: "q", Type: domain.QuestionMultiChoice, Options: []string{"A", "B"}, Settings: map[string]any{"max_selections": 1}},
			[]string{"A", "B"}, answers.CodeChoice,
		},
		{
			"Max length",
			domain.Question{ID: "q", Type: domain.QuestionLongText, Settings: map[string]any{"max_length": 3}},
			"abcd", answers.CodeLength,
		},
		{
			"Bad settings",
			domain.Question{ID: "q", Type: domain.QuestionShortText, Settings: map[string]any{"max_length": "lots"}},
			"abcd", answers.CodeSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := answers.Validate(&tt.question, tt.value, policy)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidAnswer))

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.code, verr.Code)
			assert.Equal(t, "q", verr.QuestionID)
		})
	}
}

func TestValidate_CustomDenyList(t *testing.T) {
	q := &domain.Question{ID: "work", Type: domain.QuestionEmail, Settings: map[string]any{"validation": answers.KindBusinessEmail}}
	policy := answers.Policy{FreeEmailDomains: []string{"example.org"}}

	assert.NoError(t, answers.Validate(q, "ana@gmail.com", policy))
	assert.Error(t, answers.Validate(q, "ana@example.org", policy))
}

func TestValidateAll(t *testing.T) {
	questions := []domain.Question{
		{ID: "name", Type: domain.QuestionShortText, Required: true},
		{ID: "email", Type: domain.QuestionEmail, Required: true},
	}

	// Unvisited required questions are only checked when named.
	assert.NoError(t, answers.ValidateAll(questions, domain.Answers{"name": "Ana"}, nil, answers.DefaultPolicy()))

	err := answers.ValidateAll(questions, domain.Answers{"name": "Ana"}, []string{"email"}, answers.DefaultPolicy())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.QuestionID)
	assert.Equal(t, answers.CodeRequired, verr.Code)
}

func TestDecodeSettings(t *testing.T) {
	s, err := answers.DecodeSettings(map[string]any{
		"placeholder": "you@company.com",
		"validation":  "business-email",
		"min":         "1.5",
		"extra":       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "you@company.com", s.Placeholder)
	assert.Equal(t, answers.KindBusinessEmail, s.Validation)
	require.NotNil(t, s.Min)
	assert.Equal(t, 1.5, *s.Min)
	assert.Nil(t, s.Max)
}
