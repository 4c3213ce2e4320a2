package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "file", cfg.KVDriver)
	assert.Equal(t, "./data/buddy.json", cfg.KVPath)
	assert.Equal(t, "alloy", cfg.VoiceEnglish)
	assert.Equal(t, "nova", cfg.VoiceJapanese)
	assert.Equal(t, 60*time.Second, cfg.CollaboratorTimeout)
	assert.Equal(t, 512, cfg.MinAudioBytes)
	assert.False(t, cfg.ArchiveEnabled())
	assert.False(t, cfg.TelegramEnabled())
	assert.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("BUDDY_KV_DRIVER", "sqlite")
	t.Setenv("BUDDY_COLLABORATOR_TIMEOUT", "5s")
	t.Setenv("BUDDY_S3_ENDPOINT", "s3.local:9000")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "./data/buddy.db", cfg.KVPath)
	assert.Equal(t, 5*time.Second, cfg.CollaboratorTimeout)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestResolveDefaults_Rejects(t *testing.T) {
	base := func() Config {
		return Config{
			KVDriver:            "memory",
			STTProvider:         ProviderOpenAI,
			TTSProvider:         ProviderOpenAI,
			CollaboratorTimeout: time.Second,
		}
	}

	cases := map[string]func(c *Config){
		"driver":       func(c *Config) { c.KVDriver = "mongo" },
		"postgres dsn": func(c *Config) { c.KVDriver = "postgres" },
		"stt":          func(c *Config) { c.STTProvider = "vosk" },
		"tts":          func(c *Config) { c.TTSProvider = "say" },
		"timeout":      func(c *Config) { c.CollaboratorTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.ResolveDefaults())
		})
	}

	c := base()
	assert.NoError(t, c.ResolveDefaults())
}

func TestValidateCollaborators(t *testing.T) {
	c := Config{STTProvider: ProviderDeepgram, TTSProvider: ProviderOpenAI}
	assert.ErrorIs(t, c.ValidateCollaborators(), ErrMissingKey)

	c.OpenAIKey = "sk"
	assert.ErrorContains(t, c.ValidateCollaborators(), "DEEPGRAM_API_KEY")

	c.DeepgramKey = "dg"
	assert.NoError(t, c.ValidateCollaborators())
}
