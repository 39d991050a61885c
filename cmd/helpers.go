package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zhaddad/aeromind/internal/agent"
	"github.com/zhaddad/aeromind/internal/airportdata"
	"github.com/zhaddad/aeromind/internal/config"
	"github.com/zhaddad/aeromind/internal/conversation"
	"github.com/zhaddad/aeromind/internal/db"
	"github.com/zhaddad/aeromind/internal/domain"
	"github.com/zhaddad/aeromind/internal/embeddings"
	"github.com/zhaddad/aeromind/internal/executor"
	"github.com/zhaddad/aeromind/internal/intent"
	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/llm"
	"github.com/zhaddad/aeromind/internal/longterm"
	"github.com/zhaddad/aeromind/internal/memory"
	"github.com/zhaddad/aeromind/internal/normalizer"
	"github.com/zhaddad/aeromind/internal/planner"
	"github.com/zhaddad/aeromind/internal/vectordb"
	"github.com/zhaddad/aeromind/internal/verifier"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `aeromind init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		_, model = config.DefaultModelsFor(provider)
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// OpenAI embeddings serve all cloud providers.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// app bundles the wired pipeline and its stores for command handlers.
type app struct {
	cfg      *config.Config
	database *db.DB
	store    *vectordb.ChromemStore
	working  *memory.Store
	agent    *agent.Agent
	longterm *longterm.Store
	data     *airportdata.Store
}

// Close releases the app's resources.
func (a *app) Close() {
	a.working.Close()
	a.database.Close()
}

// vectorDir is where the embedded knowledge base persists on disk.
func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// buildApp wires the full reasoning pipeline from configuration.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "aeromind.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	data := airportdata.NewStore(database)
	if err := data.Seed(ctx, cfg.DefaultAirport); err != nil {
		database.Close()
		return nil, fmt.Errorf("seeding airport data: %w", err)
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	service := llm.NewService(provider, cfg.Model)

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, vectorDir(cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load knowledge base from %s: %v\n", vectorDir(cfg), err)
		fmt.Fprintf(os.Stderr, "Answers will not be knowledge-grounded. Run `aeromind ingest` first.\n")
	}

	working := memory.NewStore(time.Minute)
	retriever := knowledge.NewRetriever(store, working)
	convs := conversation.NewStore(database, conversation.NewLLMSummarizer(service))
	lt := longterm.NewStore(database)

	a := agent.New(agent.Config{
		Normalizer: normalizer.New(normalizer.Options{
			EnableAbbreviationExpansion: cfg.Normalizer.AbbreviationExpansion,
			EnableSynonymReplacement:    cfg.Normalizer.SynonymReplacement,
			EnableColloquialTranslation: cfg.Normalizer.ColloquialTranslation,
			EnablePhrasingNormalization: cfg.Normalizer.PhrasingNormalization,
		}),
		Classifier: intent.NewClassifier(service, cfg.Intent.ConfidenceThreshold),
		Processor:  domain.NewProcessor(data, cfg.DefaultAirport),
		Planner:    planner.New(service),
		Executor: executor.New(service, retriever, data, working, verifier.New(service),
			time.Duration(cfg.QueryTimeoutSec)*time.Second),
		LLM:           service,
		Working:       working,
		Conversations: convs,
		LongTerm:      lt,
	})

	return &app{
		cfg:      cfg,
		database: database,
		store:    store,
		working:  working,
		agent:    a,
		longterm: lt,
		data:     data,
	}, nil
}
