// Package config loads pipeline settings from defaults, an optional
// config.yaml and LITREVIEW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Parser    ParserConfig    `mapstructure:"parser"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Index     IndexConfig     `mapstructure:"index"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Review    ReviewConfig    `mapstructure:"review"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Server    ServerConfig    `mapstructure:"server"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format    string `mapstructure:"format" validate:"oneof=json console"`
	Output    string `mapstructure:"output" validate:"oneof=stdout stderr"`
	AddSource bool   `mapstructure:"add_source"`
}

type PathsConfig struct {
	XMLDir         string `mapstructure:"xml_dir"`
	TextDir        string `mapstructure:"text_dir" validate:"required"`
	InputDir       string `mapstructure:"input_dir" validate:"required"`
	CacheDir       string `mapstructure:"cache_dir" validate:"required"`
	OutputPath     string `mapstructure:"output_path" validate:"required"`
	ExtractDir     string `mapstructure:"extract_dir" validate:"required"`
	UnavailableCSV string `mapstructure:"unavailable_csv" validate:"required"`
	QuestionsFile  string `mapstructure:"questions_file"`
}

type ParserConfig struct {
	ChunkSize int `mapstructure:"chunk_size" validate:"gt=0"`
}

// ProvidersConfig selects backends with "name[:variant]" lists separated by
// "|"; later entries are failover targets.
type ProvidersConfig struct {
	Embedding         string            `mapstructure:"embedding" validate:"required"`
	LLM               string            `mapstructure:"llm" validate:"required"`
	EmbedDim          int               `mapstructure:"embed_dim" validate:"gte=0"`
	Timeout           time.Duration     `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second" validate:"gte=0"`
	OpenAI            OpenAIConfig      `mapstructure:"openai"`
	HuggingFace       HuggingFaceConfig `mapstructure:"huggingface"`
	Cohere            CohereConfig      `mapstructure:"cohere"`
	Groq              GroqConfig        `mapstructure:"groq"`
	Ollama            OllamaConfig      `mapstructure:"ollama"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"-"`
	BaseURL    string `mapstructure:"base_url"`
	ChatModel  string `mapstructure:"chat_model"`
	EmbedModel string `mapstructure:"embed_model"`
}

type HuggingFaceConfig struct {
	APIKey   string `mapstructure:"-"`
	Model    string `mapstructure:"model"`
	LocalURL string `mapstructure:"local_url"`
	HubURL   string `mapstructure:"hub_url"`
}

type CohereConfig struct {
	APIKey  string `mapstructure:"-"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type GroqConfig struct {
	APIKey  string `mapstructure:"-"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OllamaConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	EmbedModel string `mapstructure:"embed_model"`
	ChatModel  string `mapstructure:"chat_model"`
}

type IndexConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=sqlite postgres"`
	Overwrite bool   `mapstructure:"overwrite"`
	TopK      int    `mapstructure:"top_k" validate:"gt=0"`
	BatchSize int    `mapstructure:"batch_size" validate:"gt=0"`
}

type RetryConfig struct {
	Tries   int           `mapstructure:"tries" validate:"gt=0"`
	Delay   time.Duration `mapstructure:"delay" validate:"gte=0"`
	Backoff float64       `mapstructure:"backoff" validate:"gte=1"`
}

type ReviewConfig struct {
	Mode                 string  `mapstructure:"mode" validate:"oneof=retrieval whole_paper"`
	Checkpoint           string  `mapstructure:"checkpoint" validate:"oneof=json sqlite postgres"`
	RetryErrored         bool    `mapstructure:"retry_errored"`
	ReadabilityThreshold float64 `mapstructure:"readability_threshold" validate:"gte=0,lte=1"`
}

type ExtractConfig struct {
	Overwrite bool `mapstructure:"overwrite"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"-"`
	Migrate bool   `mapstructure:"migrate"`
}

type TemporalConfig struct {
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LITREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/litreview")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	loadSecrets(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loadSecrets reads credentials from the environment only, never from files.
func loadSecrets(cfg *Config) {
	cfg.Providers.OpenAI.APIKey = os.Getenv("LITREVIEW_OPENAI_API_KEY")
	cfg.Providers.HuggingFace.APIKey = os.Getenv("LITREVIEW_HUGGINGFACE_API_KEY")
	cfg.Providers.Cohere.APIKey = os.Getenv("LITREVIEW_COHERE_API_KEY")
	cfg.Providers.Groq.APIKey = os.Getenv("LITREVIEW_GROQ_API_KEY")
	cfg.Database.URL = os.Getenv("LITREVIEW_DATABASE_URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)

	v.SetDefault("paths.xml_dir", "data/raw/xml")
	v.SetDefault("paths.text_dir", "data/processed/text")
	v.SetDefault("paths.input_dir", "data/processed/text")
	v.SetDefault("paths.cache_dir", "data/cache")
	v.SetDefault("paths.output_path", "data/processed/answers.json")
	v.SetDefault("paths.extract_dir", "data/processed/fields")
	v.SetDefault("paths.unavailable_csv", "data/processed/unavailable_papers.csv")
	v.SetDefault("paths.questions_file", "")

	v.SetDefault("parser.chunk_size", 1000)

	v.SetDefault("providers.embedding", "mock")
	v.SetDefault("providers.llm", "mock")
	v.SetDefault("providers.embed_dim", 0)
	v.SetDefault("providers.timeout", "90s")
	v.SetDefault("providers.requests_per_second", 0)
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.chat_model", "gpt-4o-mini")
	v.SetDefault("providers.openai.embed_model", "text-embedding-3-small")
	v.SetDefault("providers.huggingface.model", "sentence-transformers/all-mpnet-base-v2")
	v.SetDefault("providers.huggingface.local_url", "http://localhost:8081")
	v.SetDefault("providers.huggingface.hub_url", "https://api-inference.huggingface.co")
	v.SetDefault("providers.cohere.base_url", "https://api.cohere.ai")
	v.SetDefault("providers.cohere.model", "embed-english-v2.0")
	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.model", "llama-3.1-8b-instant")
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434")
	v.SetDefault("providers.ollama.embed_model", "nomic-embed-text")
	v.SetDefault("providers.ollama.chat_model", "llama3.1")

	v.SetDefault("index.backend", "sqlite")
	v.SetDefault("index.overwrite", false)
	v.SetDefault("index.top_k", 4)
	v.SetDefault("index.batch_size", 64)

	v.SetDefault("retry.tries", 4)
	v.SetDefault("retry.delay", "3s")
	v.SetDefault("retry.backoff", 2.0)

	v.SetDefault("review.mode", "retrieval")
	v.SetDefault("review.checkpoint", "json")
	v.SetDefault("review.retry_errored", false)
	v.SetDefault("review.readability_threshold", 0.5)

	v.SetDefault("extract.overwrite", false)

	v.SetDefault("database.migrate", false)

	v.SetDefault("temporal.address", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "litreview")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "litreview.documents")

	v.SetDefault("metrics.namespace", "litreview")
}

var validate = validator.New()

// Validate checks field ranges and the cross-field requirements of the
// selected backends.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	needsDB := c.Index.Backend == "postgres" || c.Review.Checkpoint == "postgres"
	if needsDB && c.Database.URL == "" {
		return fmt.Errorf("postgres backend selected but LITREVIEW_DATABASE_URL is empty")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka enabled without brokers or topic")
	}
	for _, sel := range []string{c.Providers.Embedding, c.Providers.LLM} {
		for _, part := range strings.Split(sel, "|") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), ":")
			if err := c.requireKey(strings.ToLower(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Config) requireKey(provider string) error {
	missing := func(env string) error {
		return fmt.Errorf("provider %q selected but %s is empty", provider, env)
	}
	switch provider {
	case "openai":
		if c.Providers.OpenAI.APIKey == "" {
			return missing("LITREVIEW_OPENAI_API_KEY")
		}
	case "huggingface-hub":
		if c.Providers.HuggingFace.APIKey == "" {
			return missing("LITREVIEW_HUGGINGFACE_API_KEY")
		}
	case "cohere":
		if c.Providers.Cohere.APIKey == "" {
			return missing("LITREVIEW_COHERE_API_KEY")
		}
	case "groq":
		if c.Providers.Groq.APIKey == "" {
			return missing("LITREVIEW_GROQ_API_KEY")
		}
	}
	return nil
}
