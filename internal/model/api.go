package model

import "time"

// ChatRequest represents a conversational turn request
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse represents the assistant's answer
type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Took      int64  `json:"took_ms"` // Response time in milliseconds
}

// PropertyFilters represents structured catalog filters
type PropertyFilters struct {
	Status   *PropertyStatus `json:"status,omitempty"`
	Location *string         `json:"location,omitempty"`
	PriceMin *float64        `json:"price_min,omitempty"`
	PriceMax *float64        `json:"price_max,omitempty"`
	Amenity  *string         `json:"amenity,omitempty"`
}

// PropertyListResponse represents a filtered catalog listing
type PropertyListResponse struct {
	Results []Property `json:"results"`
	Total   int        `json:"total"`
}

// ConversationResponse represents the stored conversation of a session
type ConversationResponse struct {
	SessionID       string    `json:"session_id"`
	Messages        []Message `json:"messages"`
	Summary         string    `json:"summary"`
	LastSummaryTime time.Time `json:"last_summary_time"`
}
