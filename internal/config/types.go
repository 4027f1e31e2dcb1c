package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Persona selects the audience the final answer is written for.
type Persona string

const (
	PersonaCitizen     Persona = "citizen"
	PersonaJournalist  Persona = "journalist"
	PersonaStudent     Persona = "student"
	PersonaPolicymaker Persona = "policymaker"
)

// Personas lists all supported personas in a fixed order.
var Personas = []Persona{PersonaCitizen, PersonaJournalist, PersonaStudent, PersonaPolicymaker}

// Config is the top-level decipher configuration, corresponding to .decipher.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	DataDir    string `yaml:"data_dir" koanf:"data_dir"`       // CSV corpus root (synthesis/, transformation/)
	ReportsDir string `yaml:"reports_dir" koanf:"reports_dir"` // PDF reports
	IndexDir   string `yaml:"index_dir" koanf:"index_dir"`     // vector store, artifacts, audit DB

	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`

	Chunk ChunkConfig `yaml:"chunk" koanf:"chunk"`

	RerankWeight float64 `yaml:"rerank_weight" koanf:"rerank_weight"` // keyword blend weight, 0 disables reranking

	DefaultPersona Persona `yaml:"default_persona" koanf:"default_persona"`
}

// ChunkConfig bounds PDF chunk segmentation.
type ChunkConfig struct {
	MaxChars     int `yaml:"max_chars" koanf:"max_chars"`
	OverlapChars int `yaml:"overlap_chars" koanf:"overlap_chars"`
}
