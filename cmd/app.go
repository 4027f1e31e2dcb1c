package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/swissenergydata/decipher/internal/agent"
	"github.com/swissenergydata/decipher/internal/audit"
	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/corpus"
	"github.com/swissenergydata/decipher/internal/embeddings"
	"github.com/swissenergydata/decipher/internal/llm"
	"github.com/swissenergydata/decipher/internal/orchestrator"
	"github.com/swissenergydata/decipher/internal/retrieval"
	"github.com/swissenergydata/decipher/internal/vectordb"
)

const (
	retryAttempts = 3
	retryBaseWait = time.Second
)

// app bundles the wired components a command needs. Commands request only
// the layers they use: indexing needs no LLM provider, asking needs no
// builder.
type app struct {
	cfg     *config.Config
	store   *vectordb.ChromemStore
	db      *corpus.DB
	catalog *corpus.Catalog
	orch    *orchestrator.Orchestrator
	audit   *audit.Log
}

// newApp wires store and corpus access. withOrchestrator additionally wires
// the LLM provider, the agents, and the audit log.
func newApp(ctx context.Context, withOrchestrator bool) (*app, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, cfg.IndexDir); err != nil {
		return nil, fmt.Errorf("loading index from %s: %w", cfg.IndexDir, err)
	}

	db, err := corpus.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("opening analytics database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		db:      db,
		catalog: corpus.NewCatalog(db, cfg.DataDir, cfg.Include, cfg.Exclude),
	}
	if !withOrchestrator {
		return a, nil
	}

	if err := a.catalog.Scan(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("scanning datasets: %w", err)
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		a.Close()
		return nil, err
	}
	provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	provider = llm.NewRetryingProvider(provider, retryAttempts, retryBaseWait)

	retriever := retrieval.New(store, cfg.RerankWeight)

	agents := []agent.Specialist{
		agent.NewDataInterpreter(retriever, a.catalog, provider, cfg.Model, cfg.Temperature, cfg.MaxTokens),
		agent.NewScenarioAnalyst(retriever, a.catalog, provider, cfg.Model, cfg.Temperature, cfg.MaxTokens),
		agent.NewDocumentIntelligence(retriever, cfg.ReportsDir, provider, cfg.Model, cfg.Temperature, cfg.MaxTokens),
		agent.NewPolicyContext(retriever, provider, cfg.Model, cfg.Temperature, cfg.MaxTokens),
	}

	auditLog, err := audit.Open(cfg.IndexDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.audit = auditLog

	a.orch = orchestrator.New(provider, cfg.Model, cfg.MaxTokens, agents, auditLog)
	return a, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.audit != nil {
		_ = a.audit.Close()
	}
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, host), nil

	default:
		return nil, fmt.Errorf("no embedding support for provider %q: use openai or ollama", provider)
	}
}

// resolvePersona returns the flag persona, falling back to the configured
// default.
func resolvePersona(flag string) (config.Persona, error) {
	if flag == "" {
		if cfg.DefaultPersona != "" {
			return cfg.DefaultPersona, nil
		}
		return config.PersonaCitizen, nil
	}
	for _, p := range config.Personas {
		if string(p) == flag {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown persona %q: must be one of citizen, journalist, student, policymaker", flag)
}
