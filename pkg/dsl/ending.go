package dsl

import "github.com/hificopy/formflow/pkg/domain"

// EndingBuilder provides a fluent API for configuring an ending.
type EndingBuilder struct {
	builder *Builder
	index   int
}

func (e *EndingBuilder) e() *domain.Ending {
	return &e.builder.flow.Endings[e.index]
}

// Message sets the body copy of the ending screen.
func (e *EndingBuilder) Message(msg string) *EndingBuilder {
	e.e().Message = msg
	return e
}

// Qualified sets the qualification disposition.
func (e *EndingBuilder) Qualified(qualified bool) *EndingBuilder {
	e.e().MarkAsQualified = &qualified
	return e
}

// Redirect sets the URL the respondent is sent to.
func (e *EndingBuilder) Redirect(url string) *EndingBuilder {
	e.e().RedirectURL = url
	return e
}

// CreateContact flags the ending for downstream contact creation.
func (e *EndingBuilder) CreateContact() *EndingBuilder {
	e.e().CreateContact = true
	return e
}

// Ending starts another ending.
func (e *EndingBuilder) Ending(id, title string) *EndingBuilder {
	return e.builder.Ending(id, title)
}

// Question starts another question.
func (e *EndingBuilder) Question(id string, typ domain.QuestionType, title string) *QuestionBuilder {
	return e.builder.Question(id, typ, title)
}

// Build finishes the flow.
func (e *EndingBuilder) Build() (*domain.Flow, error) {
	return e.builder.Build()
}

// MustBuild finishes the flow and panics on validation errors.
func (e *EndingBuilder) MustBuild() *domain.Flow {
	return e.builder.MustBuild()
}
