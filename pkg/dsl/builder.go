package dsl

import (
	"github.com/hificopy/formflow/internal/validator"
	"github.com/hificopy/formflow/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	flow domain.Flow
}

// New creates a new flow builder.
func New(id string) *Builder {
	return &Builder{
		flow: domain.Flow{ID: id, Kind: domain.FlowKindForm},
	}
}

// Name sets the display name of the flow.
func (b *Builder) Name(name string) *Builder {
	b.flow.Name = name
	return b
}

// Qualification marks the flow as a meeting-qualification flow.
func (b *Builder) Qualification() *Builder {
	b.flow.Kind = domain.FlowKindQualification
	return b
}

// Question appends a question. Adding an existing id returns its builder.
func (b *Builder) Question(id string, typ domain.QuestionType, title string) *QuestionBuilder {
	if i := domain.IndexOf(b.flow.Questions, id); i >= 0 {
		return &QuestionBuilder{builder: b, index: i}
	}
	b.flow.Questions = append(b.flow.Questions, domain.Question{ID: id, Type: typ, Title: title})
	return &QuestionBuilder{builder: b, index: len(b.flow.Questions) - 1}
}

// Ending appends an ending. Adding an existing id returns its builder.
func (b *Builder) Ending(id, title string) *EndingBuilder {
	for i := range b.flow.Endings {
		if b.flow.Endings[i].ID == id {
			return &EndingBuilder{builder: b, index: i}
		}
	}
	b.flow.Endings = append(b.flow.Endings, domain.Ending{ID: id, Title: title})
	return &EndingBuilder{builder: b, index: len(b.flow.Endings) - 1}
}

// Edge stores an authored edge for the visual editor.
func (b *Builder) Edge(source, target string) *Builder {
	b.flow.Layout.Edges = append(b.flow.Layout.Edges, domain.Edge{
		ID:     domain.EdgeID(source, target),
		Source: source,
		Target: target,
	})
	return b
}

// Build validates and returns a copy of the flow.
func (b *Builder) Build() (*domain.Flow, error) {
	flow := b.flow.Clone()
	report := validator.Validate(flow.Questions, flow.Endings)
	if !report.Valid {
		return nil, &domain.InvalidFlowError{Report: report}
	}
	return flow, nil
}

// MustBuild is Build for static flows; it panics on validation errors.
func (b *Builder) MustBuild() *domain.Flow {
	flow, err := b.Build()
	if err != nil {
		panic(err)
	}
	return flow
}
