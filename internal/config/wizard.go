package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .aeromind.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to aeromind! Let's configure your assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model, cfg.EmbeddingModel = DefaultModelsFor(cfg.Provider)
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Home airport.
	airportPrompt := promptui.Prompt{
		Label:   "Default airport (IATA code)",
		Default: cfg.DefaultAirport,
		Validate: func(s string) error {
			if len(strings.TrimSpace(s)) != 3 {
				return fmt.Errorf("enter a three-letter IATA code")
			}
			return nil
		},
	}
	airport, err := airportPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("airport: %w", err)
	}
	cfg.DefaultAirport = strings.ToUpper(strings.TrimSpace(airport))

	// 4. Knowledge directory.
	knowledgePrompt := promptui.Prompt{
		Label:   "Knowledge directory (markdown files to ingest)",
		Default: cfg.KnowledgeDir,
	}
	if cfg.KnowledgeDir, err = knowledgePrompt.Run(); err != nil {
		return nil, fmt.Errorf("knowledge dir: %w", err)
	}

	// 5. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running aeromind.\n", envVar)
		}
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}
