package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Chunk.MaxChars != 1400 {
		t.Errorf("chunk.max_chars = %d", cfg.Chunk.MaxChars)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".decipher.yml")
	content := "provider: ollama\nmodel: llama3\ntemperature: 0.7\ndata_dir: /srv/data\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama || cfg.Model != "llama3" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.Temperature)
	}
	if cfg.DataDir != "/srv/data" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxTokens != 2000 {
		t.Errorf("max_tokens = %d", cfg.MaxTokens)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".decipher.yml")
	if err := os.WriteFile(path, []byte("model: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DECIPHER_MODEL", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("model = %q, want env override", cfg.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "watson" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"negative temperature", func(c *Config) { c.Temperature = -1 }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"overlap >= max chars", func(c *Config) { c.Chunk.OverlapChars = c.Chunk.MaxChars }},
		{"rerank weight above one", func(c *Config) { c.RerankWeight = 1.5 }},
		{"unknown persona", func(c *Config) { c.DefaultPersona = "expert" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config passed validation")
			}
		})
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".decipher.yml")

	cfg := DefaultConfig()
	cfg.Model = "gpt-4o-mini"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", loaded.Model)
	}
}
