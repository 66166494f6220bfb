package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. DUDOXX_SERVER_PORT or DUDOXX_OPENAI_API_KEY.
const EnvPrefix = "DUDOXX"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the named config file when path is non-empty.
// Without a path, config.yaml is looked up in the working directory and ./config.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.LLM.Provider == "gemini" && c.Gemini.APIKey == "" {
		return fmt.Errorf("config validation failed: gemini.api_key is required when llm.provider is gemini")
	}

	if c.Storage.Driver == "s3" {
		s3 := c.Storage.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.AccessKey == "" || s3.SecretKey == "" {
			return fmt.Errorf("config validation failed: storage.s3 endpoint, bucket and credentials are required for the s3 driver")
		}
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.log_max_size_mb", 100)
	v.SetDefault("server.log_max_backups", 5)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(50<<20))
	v.SetDefault("server.public_base_url", "")
	v.SetDefault("server.upload_dir", "temp")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.task_ttl", time.Hour)
	v.SetDefault("redis.lookup_ttl", time.Hour)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.speech_model", "tts-1")
	v.SetDefault("openai.embedding_model", "text-embedding-ada-002")
	v.SetDefault("openai.timeout", 2*time.Minute)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_base_delay", time.Second)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)

	v.SetDefault("deepgram.api_key", "")
	v.SetDefault("deepgram.base_url", "https://api.deepgram.com")
	v.SetDefault("deepgram.model", "nova-2")
	v.SetDefault("deepgram.language", "en")
	v.SetDefault("deepgram.timeout", 2*time.Minute)

	v.SetDefault("search.base_url", "https://html.duckduckgo.com")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.user_agent", "Mozilla/5.0 (compatible; dudoxx-api/1.0)")
	v.SetDefault("search.timeout", 15*time.Second)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "tmp")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_ssl", true)

	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.top_k", 4)
	v.SetDefault("rag.embedding_dimensions", 1536)
	v.SetDefault("rag.embedding_batch_size", 64)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "redis")

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "dudoxx-api")

	v.SetDefault("auth.download_token_secret", "")
	v.SetDefault("auth.download_token_lifetime", 15*time.Minute)

	v.SetDefault("api_keys.bcrypt_cost", 10)
	v.SetDefault("api_keys.validation_cache_ttl", time.Minute)
	v.SetDefault("api_keys.validation_cache_max", 1024)
}
