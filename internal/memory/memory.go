// Package memory keeps the conversational log and its rolling summary.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"rentalbot/internal/model"
)

// Storage persists the whole conversation document
type Storage interface {
	Load(ctx context.Context) (*model.ConversationState, error)
	Save(ctx context.Context, state *model.ConversationState) error
}

// Options controls the verbatim window and the summarization trigger
type Options struct {
	MaxMessages      int
	SummaryThreshold int
}

// Outcome reports a best-effort step; a non-nil Warning means the step degraded
type Outcome struct {
	Warning error
}

// OK reports whether the step fully succeeded
func (o Outcome) OK() bool { return o.Warning == nil }

// Store is the conversational memory of a single conversation
type Store struct {
	mu      sync.Mutex
	storage Storage
	opts    Options
	now     func() time.Time
	state   model.ConversationState
}

// New loads the conversation from storage, starting fresh if that fails
func New(ctx context.Context, storage Storage, opts Options) *Store {
	return NewWithClock(ctx, storage, opts, time.Now)
}

// NewWithClock is New with an injectable clock
func NewWithClock(ctx context.Context, storage Storage, opts Options, now func() time.Time) *Store {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 10
	}
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = 5
	}

	s := &Store{
		storage: storage,
		opts:    opts,
		now:     now,
		state:   model.ConversationState{Messages: []model.Message{}, LastSummaryTime: now()},
	}

	if storage == nil {
		return s
	}

	loaded, err := storage.Load(ctx)
	if err != nil {
		log.Printf("Warning: Could not load conversation memory: %v", err)
		return s
	}
	if loaded != nil {
		if loaded.Messages == nil {
			loaded.Messages = []model.Message{}
		}
		if loaded.LastSummaryTime.IsZero() {
			loaded.LastSummaryTime = now()
		}
		s.state = *loaded
	}

	return s
}

// Append records a message with the current timestamp and persists
func (s *Store) Append(ctx context.Context, role model.Role, content string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Messages = append(s.state.Messages, model.Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	return s.save(ctx)
}

// RecentMessages returns the last n messages in chronological order.
// n <= 0 uses the configured window.
func (s *Store) RecentMessages(n int) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent(n)
}

func (s *Store) recent(n int) []model.Message {
	if n <= 0 {
		n = s.opts.MaxMessages
	}
	msgs := s.state.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ShouldSummarize reports whether the message count reached the threshold.
// It does not reset after a summary is stored.
func (s *Store) ShouldSummarize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Messages) >= s.opts.SummaryThreshold
}

// UpdateSummary replaces the rolling summary and persists
func (s *Store) UpdateSummary(ctx context.Context, summary string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Summary = summary
	s.state.LastSummaryTime = s.now()
	return s.save(ctx)
}

// Context renders the summary followed by the recent window as prompt text
func (s *Store) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	if s.state.Summary != "" {
		parts = append(parts, "Previous conversation summary: "+s.state.Summary)
	}

	recent := s.recent(0)
	if len(recent) > 0 {
		parts = append(parts, "\nRecent messages:")
		for _, m := range recent {
			parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
	}

	return strings.Join(parts, "\n")
}

// Clear empties messages and summary and persists
func (s *Store) Clear(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = model.ConversationState{Messages: []model.Message{}, LastSummaryTime: s.now()}
	return s.save(ctx)
}

// Len returns the total number of stored messages
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Messages)
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() model.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) save(ctx context.Context) Outcome {
	if s.storage == nil {
		return Outcome{}
	}
	snapshot := s.state.Clone()
	if err := s.storage.Save(ctx, &snapshot); err != nil {
		return Outcome{Warning: fmt.Errorf("could not save conversation memory: %w", err)}
	}
	return Outcome{}
}
