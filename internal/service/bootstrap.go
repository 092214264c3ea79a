package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"rentalbot/internal/catalog"
	"rentalbot/internal/config"
	"rentalbot/internal/memory"
	"rentalbot/internal/model"
	"rentalbot/internal/repository"
	"rentalbot/internal/retrieval"
)

// DefaultSessionID names the conversation used by the interactive CLI
const DefaultSessionID = "default"

// Runtime holds every long-lived component built at startup
type Runtime struct {
	Config   *config.Config
	Client   AIClient
	Catalog  *catalog.Catalog
	Index    retrieval.Index
	Chain    model.ChainConfig
	Sessions *Sessions

	sqlite  *memory.SQLiteDB
	closers []io.Closer
}

// Bootstrap builds the runtime against the configured OpenAI-compatible API
func Bootstrap(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	return BootstrapWith(ctx, cfg, NewOpenAIClient(&cfg.OpenAI))
}

// BootstrapWith builds the runtime using client for generation and embeddings.
// Nothing is returned unless every component initialized.
func BootstrapWith(ctx context.Context, cfg *config.Config, client AIClient) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Client: client}

	cat, err := catalog.Load(cfg.Data.PropertiesFile)
	if err != nil {
		return nil, err
	}
	rt.Catalog = cat
	log.Printf("✅ Loaded %d properties from %s", cat.Len(), cfg.Data.PropertiesFile)

	if err := rt.initIndex(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Memory.Backend == "sqlite" {
		db, err := memory.OpenSQLite(cfg.Memory.SQLitePath)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open conversation database: %w", err)
		}
		rt.sqlite = db
		rt.closers = append(rt.closers, db)
		log.Printf("✅ Conversation memory stored in %s", cfg.Memory.SQLitePath)
	}

	rt.Sessions = NewSessionsWithLimit(rt.NewChatbot, cfg.Memory.MaxSessions)
	return rt, nil
}

func (rt *Runtime) initIndex(ctx context.Context) error {
	cfg := rt.Config

	if cfg.Retrieval.Backend == "pgvector" {
		return rt.initPgvectorIndex(ctx)
	}

	indexPath, chainPath := cfg.VectorStorePath(), cfg.ChainConfigPath()
	if fileExists(indexPath) && fileExists(chainPath) {
		idx, err := retrieval.LoadMemoryIndex(indexPath, rt.Client)
		if err != nil {
			return fmt.Errorf("load saved index: %w", err)
		}
		chain, err := LoadChainConfig(chainPath)
		if err != nil {
			return err
		}
		rt.Index, rt.Chain = idx, chain
		log.Printf("✅ Loaded saved model from %s (%d entries)", cfg.Models.Dir, idx.Len())
		return nil
	}

	idx := retrieval.NewMemoryIndex(rt.Client)
	if err := idx.Build(ctx, retrieval.EntriesFromProperties(rt.Catalog.All())); err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}
	rt.Index, rt.Chain = idx, DefaultChainConfig(cfg)
	log.Printf("✅ Built retrieval index with %d entries", idx.Len())
	return nil
}

func (rt *Runtime) initPgvectorIndex(ctx context.Context) error {
	cfg := rt.Config

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, repo)

	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	idx := retrieval.NewPgvectorIndex(rt.Client, repo)
	rt.Index = idx
	rt.Chain = DefaultChainConfig(cfg)

	chainPath := cfg.ChainConfigPath()
	if fileExists(chainPath) {
		if err := idx.Attach(ctx); err == nil {
			chain, err := LoadChainConfig(chainPath)
			if err != nil {
				return err
			}
			rt.Chain = chain
			log.Printf("✅ Reusing %d stored embeddings", idx.Len())
			return nil
		} else if !errors.Is(err, retrieval.ErrIndexNotBuilt) {
			return err
		}
	}

	if err := idx.Build(ctx, retrieval.EntriesFromProperties(rt.Catalog.All())); err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}
	log.Printf("✅ Stored %d embeddings in PostgreSQL", idx.Len())
	return nil
}

// NewChatbot builds an isolated chatbot for sessionID over the shared index
func (rt *Runtime) NewChatbot(ctx context.Context, sessionID string) (*Chatbot, error) {
	cfg := rt.Config

	var extractor *ConstraintExtractor
	if cfg.Retrieval.IntentExtraction {
		extractor = NewConstraintExtractor(rt.Client)
	}

	return NewChatbot(ChatbotDeps{
		Generator: rt.Client,
		Index:     rt.Index,
		Memory: memory.New(ctx, rt.storageFor(sessionID), memory.Options{
			MaxMessages:      cfg.Memory.MaxMessages,
			SummaryThreshold: cfg.Memory.SummaryThreshold,
		}),
		RateGate:  NewRateGate(cfg.MinRequestInterval()),
		Chain:     rt.Chain,
		Extractor: extractor,
		TopK:      cfg.Retrieval.TopK,
	})
}

// storageFor picks the conversation storage of a session
func (rt *Runtime) storageFor(sessionID string) memory.Storage {
	if rt.sqlite != nil {
		return rt.sqlite.Session(sessionID)
	}
	if sessionID == DefaultSessionID {
		return memory.NewFileStorage(rt.Config.Memory.FilePath)
	}
	dir := filepath.Join(filepath.Dir(rt.Config.Memory.FilePath), "sessions")
	return memory.NewFileStorage(filepath.Join(dir, sessionID+".json"))
}

// Close releases database handles
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
