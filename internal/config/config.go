package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix: все переменные окружения читаются как BUDDY_<KEY>.
const Prefix = "BUDDY"

const (
	ProviderOpenAI     = "openai"
	ProviderDeepgram   = "deepgram"
	ProviderElevenLabs = "elevenlabs"
)

var ErrMissingKey = errors.New("required key is missing")

type Config struct {
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Хранилище
	KVDriver    string `envconfig:"KV_DRIVER" default:"file"`
	KVPath      string `envconfig:"KV_PATH" default:""`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Внешние сервисы
	OpenAIKey     string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	STTProvider   string `envconfig:"STT_PROVIDER" default:"openai"`
	DeepgramKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	TTSProvider   string `envconfig:"TTS_PROVIDER" default:"openai"`
	ElevenLabsKey string `envconfig:"ELEVENLABS_API_KEY" default:""`
	VoiceEnglish  string `envconfig:"VOICE_ENGLISH" default:"alloy"`
	VoiceJapanese string `envconfig:"VOICE_JAPANESE" default:"nova"`

	CollaboratorTimeout time.Duration `envconfig:"COLLABORATOR_TIMEOUT" default:"60s"`
	MinAudioBytes       int           `envconfig:"MIN_AUDIO_BYTES" default:"512"`
	HistoryTokenBudget  int           `envconfig:"HISTORY_TOKEN_BUDGET" default:"0"`
	AudioDir            string        `envconfig:"AUDIO_DIR" default:""`
	RateLimitPerMinute  int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`

	// Архив записей (выключен, если endpoint пуст)
	S3Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"language-buddy"`
	S3Region    string `envconfig:"S3_REGION" default:""`
	S3Insecure  bool   `envconfig:"S3_INSECURE" default:"false"`

	// Уведомления админу (выключены, если токен пуст)
	TelegramToken     string `envconfig:"TELEGRAM_TOKEN" default:""`
	TelegramAdminChat int64  `envconfig:"TELEGRAM_ADMIN_CHAT" default:"0"`
}

// New reads BUDDY_* variables and resolves defaults.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults validates drivers and providers and fills derived values.
func (c *Config) ResolveDefaults() error {
	switch c.KVDriver {
	case "memory", "redis", "postgres":
	case "file":
		if c.KVPath == "" {
			c.KVPath = "./data/buddy.json"
		}
	case "sqlite":
		if c.KVPath == "" {
			c.KVPath = "./data/buddy.db"
		}
	default:
		return fmt.Errorf("unsupported KV_DRIVER: %s", c.KVDriver)
	}
	if c.KVDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("%w: POSTGRES_DSN for postgres driver", ErrMissingKey)
	}

	switch c.STTProvider {
	case ProviderOpenAI, ProviderDeepgram:
	default:
		return fmt.Errorf("unsupported STT_PROVIDER: %s", c.STTProvider)
	}
	switch c.TTSProvider {
	case ProviderOpenAI, ProviderElevenLabs:
	default:
		return fmt.Errorf("unsupported TTS_PROVIDER: %s", c.TTSProvider)
	}

	if c.CollaboratorTimeout <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT must be positive, got %s", c.CollaboratorTimeout)
	}
	if c.MinAudioBytes < 0 {
		return fmt.Errorf("MIN_AUDIO_BYTES must not be negative")
	}
	return nil
}

// ValidateCollaborators checks the API keys the selected providers need.
func (c *Config) ValidateCollaborators() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingKey)
	}
	if c.STTProvider == ProviderDeepgram && c.DeepgramKey == "" {
		return fmt.Errorf("%w: DEEPGRAM_API_KEY", ErrMissingKey)
	}
	if c.TTSProvider == ProviderElevenLabs && c.ElevenLabsKey == "" {
		return fmt.Errorf("%w: ELEVENLABS_API_KEY", ErrMissingKey)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) ArchiveEnabled() bool {
	return c.S3Endpoint != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramAdminChat != 0
}
