package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"      validate:"required"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"     validate:"required"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	LLM       LLMConfig       `mapstructure:"llm"        validate:"required"`
	Deepgram  DeepgramConfig  `mapstructure:"deepgram"`
	Search    SearchConfig    `mapstructure:"search"     validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"    validate:"required"`
	RAG       RAGConfig       `mapstructure:"rag"        validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	APIKeys   APIKeysConfig   `mapstructure:"api_keys"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile enables rotating file output instead of stdout when non-empty.
	LogFile         string        `mapstructure:"log_file"`
	LogMaxSizeMB    int           `mapstructure:"log_max_size_mb"    validate:"gte=0"`
	LogMaxBackups   int           `mapstructure:"log_max_backups"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"   validate:"gt=0"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"   validate:"gt=0"`
	// PublicBaseURL is used to build absolute download links.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
	UploadDir     string `mapstructure:"upload_dir"      validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig configures the cache store used for task records and lookups.
type RedisConfig struct {
	URL       string        `mapstructure:"url"        validate:"required,url"`
	TaskTTL   time.Duration `mapstructure:"task_ttl"   validate:"gt=0"`
	LookupTTL time.Duration `mapstructure:"lookup_ttl" validate:"gt=0"`
}

// OpenAIConfig contains settings for the OpenAI provider.
type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"             validate:"required"`
	BaseURL            string        `mapstructure:"base_url"            validate:"omitempty,url"`
	ChatModel          string        `mapstructure:"chat_model"          validate:"required"`
	VisionModel        string        `mapstructure:"vision_model"        validate:"required"`
	TranscriptionModel string        `mapstructure:"transcription_model" validate:"required"`
	SpeechModel        string        `mapstructure:"speech_model"        validate:"required"`
	EmbeddingModel     string        `mapstructure:"embedding_model"     validate:"required"`
	Timeout            time.Duration `mapstructure:"timeout"             validate:"gt=0"`
}

// GeminiConfig configures the optional Gemini chat provider.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
	// MaxRetries bounds retries of transient failures; 0 disables retrying.
	MaxRetries     int           `mapstructure:"max_retries"      validate:"gte=0,lte=10"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"gte=0"`
}

// LLMConfig selects the provider used for text chat completions
// (summaries, translations, refinement and RAG answers).
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"    validate:"required,oneof=openai gemini"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// DeepgramConfig configures the Deepgram transcription provider.
type DeepgramConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"  validate:"omitempty,url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SearchConfig configures the DuckDuckGo web search adapter.
type SearchConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	MaxResults int           `mapstructure:"max_results" validate:"gt=0,lte=25"`
	UserAgent  string        `mapstructure:"user_agent"  validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gt=0"`
}

// StorageConfig selects where generated speech files are written.
type StorageConfig struct {
	Driver   string      `mapstructure:"driver"    validate:"required,oneof=local s3"`
	LocalDir string      `mapstructure:"local_dir" validate:"required_if=Driver local"`
	S3       MinioConfig `mapstructure:"s3"`
}

// MinioConfig holds S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RAGConfig contains document ingestion and retrieval settings.
type RAGConfig struct {
	ChunkSize           int `mapstructure:"chunk_size"           validate:"gt=0"`
	TopK                int `mapstructure:"top_k"                validate:"gt=0,lte=50"`
	EmbeddingDimensions int `mapstructure:"embedding_dimensions" validate:"gt=0"`
	EmbeddingBatchSize  int `mapstructure:"embedding_batch_size" validate:"gt=0"`
}

// RateLimitConfig controls per-route request limits.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is "redis" for a shared fixed window or "memory" for a per-process token bucket.
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=redis memory"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"     validate:"omitempty,oneof=none stdout otlphttp"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	ServiceName string  `mapstructure:"service_name"`
}

// AuthConfig contains settings for signed speech download links.
type AuthConfig struct {
	DownloadTokenSecret   string        `mapstructure:"download_token_secret"   validate:"required,min=32"`
	DownloadTokenLifetime time.Duration `mapstructure:"download_token_lifetime" validate:"gt=0"`
}

// APIKeysConfig tunes API key validation.
type APIKeysConfig struct {
	BcryptCost         int           `mapstructure:"bcrypt_cost"          validate:"gte=4,lte=31"`
	ValidationCacheTTL time.Duration `mapstructure:"validation_cache_ttl"`
	ValidationCacheMax int           `mapstructure:"validation_cache_max" validate:"gte=0"`
}
