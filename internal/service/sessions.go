package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rentalbot/internal/utils"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidSession is returned for session IDs that are not UUIDs
var ErrInvalidSession = errors.New("invalid session id")

// DefaultMaxSessions bounds live chatbots when no limit is configured
const DefaultMaxSessions = 1000

// ChatbotFactory builds the chatbot for a new session
type ChatbotFactory func(ctx context.Context, sessionID string) (*Chatbot, error)

// Sessions keeps one isolated chatbot per conversation.
// Each has its own memory and rate gate; the retrieval index is shared.
type Sessions struct {
	mu      sync.Mutex
	bots    *lru.Cache[string, *Chatbot]
	factory ChatbotFactory
}

// NewSessions creates an empty session registry holding up to DefaultMaxSessions chatbots
func NewSessions(factory ChatbotFactory) *Sessions {
	return NewSessionsWithLimit(factory, DefaultMaxSessions)
}

// NewSessionsWithLimit keeps at most maxSessions chatbots and drops the least recently used.
// A dropped session reloads its history from memory storage on next use.
func NewSessionsWithLimit(factory ChatbotFactory, maxSessions int) *Sessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	bots, _ := lru.New[string, *Chatbot](maxSessions) // errors only on non-positive size
	return &Sessions{
		bots:    bots,
		factory: factory,
	}
}

// Get returns the chatbot for sessionID, creating it on first use.
// An empty sessionID starts a new session with a fresh UUID.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Chatbot, string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		id, err := uuid.Parse(sessionID)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
		}
		sessionID = id.String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bot, ok := s.bots.Get(sessionID); ok {
		return bot, sessionID, nil
	}

	bot, err := s.factory(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("create session %s: %w", sessionID, err)
	}
	if s.bots.Add(sessionID, bot) {
		utils.Debugf("[DEBUG] Session limit reached, dropped least recently used chatbot")
	}
	return bot, sessionID, nil
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bots.Len()
}
