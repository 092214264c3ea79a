package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"rentalbot/internal/memory"
	"rentalbot/internal/model"
	"rentalbot/internal/retrieval"
	"rentalbot/internal/utils"
)

// ChatbotDeps are the collaborators of one conversation
type ChatbotDeps struct {
	Generator Generator
	Index     retrieval.Index
	Memory    *memory.Store
	RateGate  *RateGate
	Chain     model.ChainConfig
	Matcher   *Matcher             // nil uses NewMatcher()
	Extractor *ConstraintExtractor // nil skips constraint extraction
	TopK      int
}

// Chatbot answers guest questions for a single conversation, one turn at a time
type Chatbot struct {
	mu        sync.Mutex
	generator Generator
	index     retrieval.Index
	memory    *memory.Store
	rateGate  *RateGate
	chain     model.ChainConfig
	matcher   *Matcher
	extractor *ConstraintExtractor
	topK      int
}

// NewChatbot wires a chatbot from its dependencies
func NewChatbot(deps ChatbotDeps) (*Chatbot, error) {
	if deps.Generator == nil {
		return nil, errors.New("chatbot requires a generator")
	}
	if deps.Index == nil {
		return nil, errors.New("chatbot requires a retrieval index")
	}
	if deps.Memory == nil {
		return nil, errors.New("chatbot requires a memory store")
	}
	if deps.RateGate == nil {
		deps.RateGate = NewRateGatePerMinute(60)
	}
	if deps.Matcher == nil {
		deps.Matcher = NewMatcher()
	}
	if deps.TopK <= 0 {
		deps.TopK = 4
	}
	if deps.Chain.SystemMessage == "" {
		deps.Chain.SystemMessage = model.DefaultSystemMessage
	}

	return &Chatbot{
		generator: deps.Generator,
		index:     deps.Index,
		memory:    deps.Memory,
		rateGate:  deps.RateGate,
		chain:     deps.Chain,
		matcher:   deps.Matcher,
		extractor: deps.Extractor,
		topK:      deps.TopK,
	}, nil
}

// GetResponse runs one conversational turn and always returns text.
// Failures become an apology that is also recorded as the assistant turn.
func (c *Chatbot) GetResponse(ctx context.Context, userInput string) string {
	return c.respond(ctx, userInput, nil)
}

// GetResponseStream is GetResponse with content deltas forwarded to onDelta as they arrive
func (c *Chatbot) GetResponseStream(ctx context.Context, userInput string, onDelta func(delta string) error) string {
	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}
	return c.respond(ctx, userInput, onDelta)
}

func (c *Chatbot) respond(ctx context.Context, userInput string, onDelta func(string) error) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	startTime := time.Now()
	answer, err := c.turn(ctx, userInput, onDelta)
	if err != nil {
		log.Printf("❌ Turn failed: %v", err)
		answer = fmt.Sprintf("I apologize, but I encountered an error: %v", err)
		c.logOutcome(c.memory.Append(ctx, model.RoleAssistant, answer))
		return answer
	}

	utils.Debugf("[DEBUG] ✅ Turn completed in %v", time.Since(startTime))
	return answer
}

func (c *Chatbot) turn(ctx context.Context, userInput string, onDelta func(string) error) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.rateGate.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	c.logOutcome(c.memory.Append(ctx, model.RoleUser, userInput))

	chatHistory := c.memory.Context()
	retrieved, err := c.index.Query(ctx, userInput, c.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve properties: %w", err)
	}
	utils.Debugf("[DEBUG] 🔍 Retrieved %d properties", len(retrieved))

	var constraints *model.Constraints
	if c.extractor != nil {
		constraints = c.extractor.Extract(ctx, userInput)
	}
	c.matcher.Annotate(retrieved, constraints)

	req := GenerateRequest{
		Model:       c.chain.ModelName,
		Temperature: temperature(c.chain.Temperature),
		Prompt:      BuildQAPrompt(c.chain, chatHistory, retrieved, userInput),
	}
	if onDelta != nil {
		answer, err = c.generator.GenerateStream(ctx, req, onDelta)
	} else {
		answer, err = c.generator.Generate(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	c.logOutcome(c.memory.Append(ctx, model.RoleAssistant, answer))

	c.summarize(ctx)

	return answer, nil
}

// summarize refreshes the rolling summary once the trigger is reached. Best effort.
func (c *Chatbot) summarize(ctx context.Context) {
	if !c.memory.ShouldSummarize() {
		return
	}

	prompt := BuildSummaryPrompt(c.memory.RecentMessages(0))
	summary, err := c.generator.Generate(ctx, GenerateRequest{
		Model:       c.chain.ModelName,
		Temperature: temperature(c.chain.Temperature),
		Prompt:      prompt,
	})
	if err != nil {
		log.Printf("Warning: Could not summarize conversation: %v", err)
		return
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Printf("Warning: Could not summarize conversation: empty summary")
		return
	}

	c.logOutcome(c.memory.UpdateSummary(ctx, summary))
	utils.Debugf("[DEBUG] 📝 Conversation summary updated (%d chars)", len(summary))
}

// Clear wipes the conversation
func (c *Chatbot) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logOutcome(c.memory.Clear(ctx))
}

// History returns a copy of the stored conversation
func (c *Chatbot) History() model.ConversationState {
	return c.memory.Snapshot()
}

func (c *Chatbot) logOutcome(o memory.Outcome) {
	if !o.OK() {
		log.Printf("Warning: %v", o.Warning)
	}
}
