package config

// DefaultExcludes are glob patterns skipped when walking the corpus.
var DefaultExcludes = []string{
	"**/.*",
	"**/*.tmp",
	"**/~$*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Temperature:       0.3,
		MaxTokens:         2000,
		RequestsPerMinute: 60,
		DataDir:           "data/extracted",
		ReportsDir:        "data/reports",
		IndexDir:          ".decipher",
		Include:           []string{"**"},
		Exclude:           DefaultExcludes,
		Chunk: ChunkConfig{
			MaxChars:     1400,
			OverlapChars: 200,
		},
		RerankWeight:   0.15,
		DefaultPersona: PersonaCitizen,
	}
}
