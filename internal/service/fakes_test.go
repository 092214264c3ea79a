package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rentalbot/internal/memory"
	"rentalbot/internal/model"
	"rentalbot/internal/retrieval"
)

// fakeModel implements AIClient without network access
type fakeModel struct {
	mu       sync.Mutex
	answer   func(req GenerateRequest) (string, error)
	requests []GenerateRequest
	embedErr error
	embeds   int
}

func (f *fakeModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.answer == nil {
		return "ok", nil
	}
	return f.answer(req)
}

func (f *fakeModel) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string) error) (string, error) {
	answer, err := f.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	for _, word := range strings.SplitAfter(answer, " ") {
		if err := onDelta(word); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (f *fakeModel) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.embeds++
	f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		out[i] = []float32{
			0.1,
			float32(strings.Count(lower, "villa")),
			float32(strings.Count(lower, "cabin")),
			float32(strings.Count(lower, "loft")),
		}
	}
	return out, nil
}

func (f *fakeModel) IsEnabled() bool { return true }

func (f *fakeModel) prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Prompt
	}
	return out
}

var _ AIClient = (*fakeModel)(nil)

// contextEcho answers with the property names found in the prompt context
func contextEcho(req GenerateRequest) (string, error) {
	if isSummaryPrompt(req.Prompt) {
		return "Guest is looking for a rental.", nil
	}
	var names []string
	for _, line := range strings.Split(req.Prompt, "\n") {
		if name, ok := strings.CutPrefix(line, "Property: "); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "I don't know of any properties.", nil
	}
	return "You could stay at " + strings.Join(names, ", ") + ".", nil
}

func isSummaryPrompt(prompt string) bool {
	return strings.HasPrefix(prompt, "Please provide a concise summary")
}

var errGeneration = errors.New("simulated generation failure")

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func villa() model.Property {
	return model.Property{
		ID:              1,
		Name:            "Seaside Villa",
		Location:        "Malibu",
		Price:           200,
		Status:          model.StatusAvailable,
		Amenities:       []string{"WiFi", "Pool", "Kitchen"},
		AvailableMonths: []string{"June", "July", "August"},
		MaxGuests:       intPtr(6),
		Bedrooms:        intPtr(3),
		Bathrooms:       intPtr(2),
		PetFriendly:     boolPtr(true),
	}
}

func cabin() model.Property {
	return model.Property{
		ID:              2,
		Name:            "Mountain Cabin",
		Location:        "Aspen",
		Price:           120,
		Status:          model.StatusUnavailable,
		Amenities:       []string{"Fireplace", "Hot Tub"},
		AvailableMonths: []string{"December"},
		MaxGuests:       intPtr(4),
		Bedrooms:        intPtr(2),
		PetFriendly:     boolPtr(false),
	}
}

type botFixture struct {
	bot    *Chatbot
	model  *fakeModel
	memory *memory.Store
	path   string
}

func newBotFixture(t *testing.T, answer func(GenerateRequest) (string, error), properties ...model.Property) *botFixture {
	t.Helper()
	ctx := context.Background()

	fm := &fakeModel{answer: answer}
	idx := retrieval.NewMemoryIndex(fm)
	if err := idx.Build(ctx, retrieval.EntriesFromProperties(properties)); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "conversation_memory.json")
	store := memory.New(ctx, memory.NewFileStorage(path), memory.Options{MaxMessages: 10, SummaryThreshold: 5})

	bot, err := NewChatbot(ChatbotDeps{
		Generator: fm,
		Index:     idx,
		Memory:    store,
		RateGate:  NewRateGate(0),
		Chain:     model.ChainConfig{ModelName: "test-model", Temperature: 0.7},
	})
	if err != nil {
		t.Fatalf("NewChatbot() error = %v", err)
	}

	return &botFixture{bot: bot, model: fm, memory: store, path: path}
}
