package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level aeromind configuration, corresponding to .aeromind.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	DataDir        string `yaml:"data_dir" koanf:"data_dir"`
	KnowledgeDir   string `yaml:"knowledge_dir" koanf:"knowledge_dir"`
	DefaultAirport string `yaml:"default_airport" koanf:"default_airport"`

	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`

	RateLimitRPM    int `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	QueryTimeoutSec int `yaml:"query_timeout_sec" koanf:"query_timeout_sec"`

	Intent     IntentConfig     `yaml:"intent" koanf:"intent"`
	Normalizer NormalizerConfig `yaml:"normalizer" koanf:"normalizer"`
	Verifier   VerifierConfig   `yaml:"verifier" koanf:"verifier"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
}

// IntentConfig tunes intent classification.
type IntentConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" koanf:"confidence_threshold"`
}

// NormalizerConfig toggles individual query normalization stages.
type NormalizerConfig struct {
	AbbreviationExpansion bool `yaml:"abbreviation_expansion" koanf:"abbreviation_expansion"`
	SynonymReplacement    bool `yaml:"synonym_replacement" koanf:"synonym_replacement"`
	ColloquialTranslation bool `yaml:"colloquial_translation" koanf:"colloquial_translation"`
	PhrasingNormalization bool `yaml:"phrasing_normalization" koanf:"phrasing_normalization"`
}

// VerifierConfig tunes response fact-checking.
type VerifierConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	StrictMode          bool    `yaml:"strict_mode" koanf:"strict_mode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
