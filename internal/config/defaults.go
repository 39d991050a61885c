package config

// DefaultExcludes are glob patterns skipped during knowledge ingestion by
// default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"vendor/**",
	"**/README.md",
	"**/CHANGELOG.md",
}

// defaultModels maps each provider to its default chat and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenAI:    {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle:    {Model: "gemini-3-pro-preview", EmbeddingModel: "text-embedding-004"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             defaultModels[ProviderOpenAI].Model,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    defaultModels[ProviderOpenAI].EmbeddingModel,
		DataDir:           ".aeromind",
		KnowledgeDir:      "knowledge",
		DefaultAirport:    "AMS",
		Include:           []string{"**/*.md"},
		Exclude:           DefaultExcludes,
		RateLimitRPM:      60,
		QueryTimeoutSec:   60,
		Intent: IntentConfig{
			ConfidenceThreshold: 0.7,
		},
		Normalizer: NormalizerConfig{
			AbbreviationExpansion: true,
			SynonymReplacement:    true,
			ColloquialTranslation: true,
			PhrasingNormalization: true,
		},
		Verifier: VerifierConfig{
			ConfidenceThreshold: 0.7,
			StrictMode:          false,
		},
		Server: ServerConfig{
			Port:     8080,
			AllowAll: false,
		},
	}
}

// DefaultModelsFor returns the default chat and embedding models for a
// provider, falling back to the OpenAI defaults.
func DefaultModelsFor(provider ProviderType) (model, embeddingModel string) {
	if preset, ok := defaultModels[provider]; ok {
		return preset.Model, preset.EmbeddingModel
	}
	preset := defaultModels[ProviderOpenAI]
	return preset.Model, preset.EmbeddingModel
}
