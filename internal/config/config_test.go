package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.DefaultAirport != "AMS" {
		t.Errorf("expected default airport AMS, got %q", cfg.DefaultAirport)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Intent.ConfidenceThreshold != 0.7 {
		t.Errorf("expected intent threshold 0.7, got %f", cfg.Intent.ConfidenceThreshold)
	}
	if !cfg.Normalizer.AbbreviationExpansion {
		t.Error("expected normalizer stages enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aeromind.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-sonnet-4-5-20250929"
	original.DefaultAirport = "LHR"
	original.Include = []string{"ops/**/*.md"}
	original.Server.Port = 9090
	original.Verifier.StrictMode = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.DefaultAirport != "LHR" {
		t.Errorf("default_airport: got %q", loaded.DefaultAirport)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d", loaded.Server.Port)
	}
	if !loaded.Verifier.StrictMode {
		t.Error("verifier.strict_mode not round-tripped")
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "ops/**/*.md" {
		t.Errorf("include: got %v", loaded.Include)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	t.Setenv("AEROMIND_PROVIDER", "ollama")
	t.Setenv("AEROMIND_DEFAULT_AIRPORT", "CDG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("env override not applied: got %q", cfg.Provider)
	}
	if cfg.DefaultAirport != "CDG" {
		t.Errorf("env override not applied: got %q", cfg.DefaultAirport)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "hal9000" }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"missing airport", func(c *Config) { c.DefaultAirport = "" }},
		{"negative rpm", func(c *Config) { c.RateLimitRPM = -1 }},
		{"threshold out of range", func(c *Config) { c.Intent.ConfidenceThreshold = 1.5 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
