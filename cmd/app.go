package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Vovarama1992/language_buddy/internal/ai"
	"github.com/Vovarama1992/language_buddy/internal/archive"
	"github.com/Vovarama1992/language_buddy/internal/config"
	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/error_notificator"
	"github.com/Vovarama1992/language_buddy/internal/kv"
	"github.com/Vovarama1992/language_buddy/internal/profile"
	"github.com/Vovarama1992/language_buddy/internal/speech"
)

// app: общее для всех команд: конфиг, логгер, хранилище.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store kv.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.KVDriver == string(kv.DriverFile) || cfg.KVDriver == string(kv.DriverSQLite) {
		if err := ensureParentDir(cfg.KVPath); err != nil {
			return nil, err
		}
	}

	store, err := kv.NewStore(ctx, kv.Options{
		Driver:      kv.Driver(cfg.KVDriver),
		Path:        cfg.KVPath,
		RedisAddr:   cfg.RedisAddr,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open store (%s): %w", cfg.KVDriver, err)
	}

	log.Info("store ready", zap.String("driver", cfg.KVDriver))
	return &app{cfg: cfg, log: log, store: store}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// =========================================================================
// ERROR NOTIFICATION
// =========================================================================

func (a *app) notifier() error_notificator.Notificator {
	if a.cfg.TelegramEnabled() {
		tg, err := error_notificator.NewTelegramInfra(a.cfg.TelegramToken, a.cfg.TelegramAdminChat, a.log)
		if err == nil {
			return error_notificator.NewService(tg)
		}
		a.log.Warn("telegram notifier unavailable, logging instead", zap.Error(err))
	}
	return error_notificator.NewService(error_notificator.NewLogInfra(a.log))
}

// =========================================================================
// CLIENTS (STT / GPT / TTS)
// =========================================================================

type collaborators struct {
	speech  *speech.Service
	replies *ai.Service
}

func (a *app) collaborators(notifier error_notificator.Notificator) (*collaborators, error) {
	if err := a.cfg.ValidateCollaborators(); err != nil {
		return nil, err
	}

	openAIClient := openai.NewClient(a.cfg.OpenAIKey)

	var stt speech.STTClient = speech.NewWhisperClient(openAIClient)
	if a.cfg.STTProvider == config.ProviderDeepgram {
		stt = speech.NewDeepgramClient(a.cfg.DeepgramKey, "")
	}

	var tts speech.TTSClient = speech.NewOpenAITTS(openAIClient)
	if a.cfg.TTSProvider == config.ProviderElevenLabs {
		tts = speech.NewElevenLabsClient(a.cfg.ElevenLabsKey, "")
	}

	speechService := speech.NewService(
		stt,
		tts,
		speech.Voices{English: a.cfg.VoiceEnglish, Japanese: a.cfg.VoiceJapanese},
		notifier,
		a.log,
	)

	replies := ai.NewService(
		ai.NewOpenAIClient(openAIClient, a.cfg.OpenAIModel),
		ai.NewTokenCounter(a.cfg.OpenAIModel, a.log),
		a.cfg.HistoryTokenBudget,
		notifier,
		a.log,
	)

	a.log.Info("collaborators ready",
		zap.String("stt", a.cfg.STTProvider),
		zap.String("tts", a.cfg.TTSProvider),
		zap.String("model", a.cfg.OpenAIModel),
	)
	return &collaborators{speech: speechService, replies: replies}, nil
}

// =========================================================================
// DOMAIN SERVICES
// =========================================================================

func (a *app) archive(ctx context.Context) conversation.Archiver {
	if !a.cfg.ArchiveEnabled() {
		return nil
	}
	client, err := archive.NewS3Client(ctx, archive.S3Config{
		Endpoint:  a.cfg.S3Endpoint,
		AccessKey: a.cfg.S3AccessKey,
		SecretKey: a.cfg.S3SecretKey,
		Bucket:    a.cfg.S3Bucket,
		Region:    a.cfg.S3Region,
		Insecure:  a.cfg.S3Insecure,
	})
	if err != nil {
		a.log.Warn("recording archive disabled", zap.Error(err))
		return nil
	}
	return archive.NewService(client)
}

func (a *app) session(
	ctx context.Context,
	recorder conversation.Recorder,
	stt conversation.Transcriber,
	replies conversation.ReplyGenerator,
) (*conversation.Session, profile.Service) {
	profiles := profile.NewService(a.store, a.log)

	opts := []conversation.Option{
		conversation.WithTimeout(a.cfg.CollaboratorTimeout),
		conversation.WithMinAudioBytes(a.cfg.MinAudioBytes),
	}
	if arch := a.archive(ctx); arch != nil {
		opts = append(opts, conversation.WithArchive(arch))
	}

	s := conversation.NewSession(ctx, a.store, recorder, stt, replies, profiles, a.log, opts...)
	return s, profiles
}
