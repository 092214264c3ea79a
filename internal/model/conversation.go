package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role represents the role of a message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single chat turn
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is the persisted conversational memory document
type ConversationState struct {
	Messages        []Message `json:"messages"`
	Summary         string    `json:"summary"`
	LastSummaryTime time.Time `json:"last_summary_time"`
}

// timestampLayouts are accepted on decode; zoneless values are read as local time
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts RFC 3339 and zoneless ISO-8601 timestamps
func (m *Message) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role      Role            `json:"role"`
		Content   string          `json:"content"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	*m = Message{Role: aux.Role, Content: aux.Content, Timestamp: ts}
	return nil
}

// UnmarshalJSON accepts RFC 3339 and zoneless ISO-8601 timestamps
func (s *ConversationState) UnmarshalJSON(data []byte) error {
	var aux struct {
		Messages        []Message       `json:"messages"`
		Summary         string          `json:"summary"`
		LastSummaryTime json.RawMessage `json:"last_summary_time"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.LastSummaryTime)
	if err != nil {
		return err
	}
	*s = ConversationState{Messages: aux.Messages, Summary: aux.Summary, LastSummaryTime: ts}
	return nil
}

// Clone returns a deep copy of the state
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// ChainConfig is the saved generation configuration
type ChainConfig struct {
	ModelName     string            `json:"model_name"`
	Temperature   float64           `json:"temperature"`
	SystemMessage string            `json:"system_message"`
	Examples      []TrainingExample `json:"examples,omitempty"`
}

// DefaultSystemMessage is the fixed instruction used when no saved configuration exists
const DefaultSystemMessage = "You are a helpful property rental assistant."

// TrainingData is the layout of the training conversations file
type TrainingData struct {
	Conversations []TrainingConversation `json:"conversations"`
}

// TrainingConversation is one recorded conversation from the training file
type TrainingConversation struct {
	Messages []Message `json:"messages"`
}

// TrainingExample is a single user→assistant exchange
type TrainingExample struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	SystemMessage string `json:"system_message,omitempty"`
}
