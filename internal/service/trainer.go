package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rentalbot/internal/catalog"
	"rentalbot/internal/config"
	"rentalbot/internal/model"
	"rentalbot/internal/retrieval"
)

// LoadChainConfig reads a saved generation configuration
func LoadChainConfig(path string) (model.ChainConfig, error) {
	var chain model.ChainConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return chain, fmt.Errorf("read chain config: %w", err)
	}
	if err := json.Unmarshal(data, &chain); err != nil {
		return chain, fmt.Errorf("decode chain config %s: %w", path, err)
	}
	return chain, nil
}

// SaveChainConfig writes the generation configuration as JSON
func SaveChainConfig(path string, chain model.ChainConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	data, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chain config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chain config: %w", err)
	}
	return nil
}

// DefaultChainConfig is used when no saved configuration exists
func DefaultChainConfig(cfg *config.Config) model.ChainConfig {
	return model.ChainConfig{
		ModelName:     cfg.OpenAI.ChatModel,
		Temperature:   cfg.OpenAI.ChatTemperature,
		SystemMessage: model.DefaultSystemMessage,
	}
}

// LoadTrainingData reads recorded conversations from path
func LoadTrainingData(path string) ([]model.TrainingConversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("training data not found at %s", path)
		}
		return nil, fmt.Errorf("read training data: %w", err)
	}

	var td model.TrainingData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("invalid JSON in training data file %s: %w", path, err)
	}
	return td.Conversations, nil
}

// PrepareExamples turns conversations into user→assistant examples.
// Conversations with fewer than two messages are skipped; each example
// carries its conversation's system message when there is one.
func PrepareExamples(conversations []model.TrainingConversation) []model.TrainingExample {
	examples := []model.TrainingExample{}

	for _, conv := range conversations {
		msgs := conv.Messages
		if len(msgs) < 2 {
			continue
		}

		var systemMessage string
		for _, m := range msgs {
			if m.Role == model.RoleSystem {
				systemMessage = m.Content
				break
			}
		}

		for i := 0; i+1 < len(msgs); i++ {
			if msgs[i].Role == model.RoleUser && msgs[i+1].Role == model.RoleAssistant {
				examples = append(examples, model.TrainingExample{
					Input:         msgs[i].Content,
					Output:        msgs[i+1].Content,
					SystemMessage: systemMessage,
				})
			}
		}
	}

	return examples
}

// TrainResult summarizes a training run
type TrainResult struct {
	Examples   int
	Properties int
	IndexPath  string
	ChainPath  string
}

// Trainer builds and saves the retrieval index and generation configuration
type Trainer struct {
	cfg      *config.Config
	embedder retrieval.Embedder
}

// NewTrainer creates a trainer that embeds with embedder
func NewTrainer(cfg *config.Config, embedder retrieval.Embedder) *Trainer {
	return &Trainer{cfg: cfg, embedder: embedder}
}

// Train indexes the catalog and saves both artifacts.
// A missing training file is tolerated; the saved chain then has no examples.
func (t *Trainer) Train(ctx context.Context, cat *catalog.Catalog) (*TrainResult, error) {
	log.Printf("🚀 Starting training process...")

	var examples []model.TrainingExample
	conversations, err := LoadTrainingData(t.cfg.Data.TrainingFile)
	if err != nil {
		log.Printf("⚠️  %v, continuing without examples", err)
	} else {
		examples = PrepareExamples(conversations)
	}
	log.Printf("Prepared %d training examples", len(examples))

	idx := retrieval.NewMemoryIndex(t.embedder)
	if err := idx.Build(ctx, retrieval.EntriesFromProperties(cat.All())); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	result := &TrainResult{
		Examples:   len(examples),
		Properties: idx.Len(),
		IndexPath:  t.cfg.VectorStorePath(),
		ChainPath:  t.cfg.ChainConfigPath(),
	}

	if err := idx.Save(result.IndexPath); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	chain := DefaultChainConfig(t.cfg)
	chain.Examples = examples
	if err := SaveChainConfig(result.ChainPath, chain); err != nil {
		return nil, err
	}

	log.Printf("✅ Model saved: %d properties indexed, %d examples", result.Properties, result.Examples)
	return result, nil
}
