package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/hificopy/formflow/pkg/domain"
)

// FlowEvent is pushed to editors watching a form.
type FlowEvent struct {
	Type    string `json:"type"`
	FormID  string `json:"formId"`
	Version int    `json:"version"`
}

// StreamManager handles active SSE connections, keyed by form id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty broadcaster.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for formID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(formID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[formID]; !ok {
		sm.subscribers[formID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[formID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[formID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, formID)
				}
			}
		})
	}
}

// Broadcast delivers msg to every listener of formID. Slow listeners drop messages.
func (sm *StreamManager) Broadcast(formID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[formID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "form_id", formID)
		}
	}
}

func (s *Server) flowSaved(flow *domain.Flow) {
	if flow == nil {
		return
	}
	b, err := json.Marshal(FlowEvent{Type: "flow_saved", FormID: flow.ID, Version: flow.Version})
	if err != nil {
		return
	}
	s.streams.Broadcast(flow.ID, string(b))
}

// SubscribeEvents handles GET /forms/{id}/events (SSE). Editors receive a
// flow_saved event whenever another client saves the form.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	formID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(formID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "form_id", formID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
