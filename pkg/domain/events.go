package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDecision     EventType = "decision"
	EventScore        EventType = "score"
	EventValidation   EventType = "validation"
	EventQualify      EventType = "qualify"
	EventSaveAttempt  EventType = "save_attempt"
	EventStatusChange EventType = "status_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DecisionEvent is emitted after every navigation resolution.
type DecisionEvent struct {
	EventBase
	QuestionID string   `json:"question_id"`
	Decision   Decision `json:"decision"`
}

// ScoreEvent is emitted after a score aggregation.
type ScoreEvent struct {
	EventBase
	Total int `json:"total"`
}

// QualifyEvent is emitted once per server-side re-evaluation of a respondent.
type QualifyEvent struct {
	EventBase
	FormID string              `json:"form_id,omitempty"`
	Result QualificationResult `json:"result"`
}

// ValidationEvent is emitted after a flow is validated.
type ValidationEvent struct {
	EventBase
	FormID   string `json:"form_id,omitempty"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

// SaveAttemptEvent is emitted for every auto-save attempt.
type SaveAttemptEvent struct {
	EventBase
	SessionID string        `json:"session_id,omitempty"`
	Attempt   int           `json:"attempt"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// StatusEvent is emitted when a respondent session changes status.
type StatusEvent struct {
	EventBase
	SessionID string        `json:"session_id,omitempty"`
	From      SessionStatus `json:"from"`
	To        SessionStatus `json:"to"`
	Reason    string        `json:"reason,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnDecision     func(context.Context, *DecisionEvent)
	OnScore        func(context.Context, *ScoreEvent)
	OnQualify      func(context.Context, *QualifyEvent)
	OnValidation   func(context.Context, *ValidationEvent)
	OnSaveAttempt  func(context.Context, *SaveAttemptEvent)
	OnStatusChange func(context.Context, *StatusEvent)
}
