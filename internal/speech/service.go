package speech

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/error_notificator"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/metrics"
)

// MaxSynthesisChars: предел длины текста для синтеза.
const MaxSynthesisChars = 4000

// Voices сопоставляет языку идентификатор голоса.
type Voices struct {
	English  string
	Japanese string
}

func (v Voices) For(lang langdetect.Language) string {
	if lang == langdetect.Japanese {
		return v.Japanese
	}
	return v.English
}

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt      STTClient
	tts      TTSClient
	voices   Voices
	notifier error_notificator.Notificator
	log      *zap.Logger
}

func NewService(
	stt STTClient,
	tts TTSClient,
	voices Voices,
	notifier error_notificator.Notificator,
	log *zap.Logger,
) *Service {
	return &Service{
		stt:      stt,
		tts:      tts,
		voices:   voices,
		notifier: notifier,
		log:      log.Named("speech"),
	}
}

func (s *Service) Transcribe(ctx context.Context, blob audio.Blob) (string, error) {
	start := time.Now()
	text, err := s.stt.Transcribe(ctx, blob.Data, blob.MIMEType)
	metrics.ObserveCall(metrics.OpTranscribe, start, err)

	if err != nil {
		s.log.Warn("transcribe fail", zap.Int("bytes", blob.Size()), zap.Error(err))
		s.notify(ctx, metrics.OpTranscribe, err, fmt.Sprintf("audio %d bytes, %s", blob.Size(), blob.MIMEType))
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}

	s.log.Debug("transcribed", zap.String("text", text), zap.Duration("took", time.Since(start)))
	return text, nil
}

func (s *Service) Synthesize(ctx context.Context, text string, lang langdetect.Language) ([]byte, error) {
	text = TruncateText(text, MaxSynthesisChars)
	voice := s.voices.For(lang)

	start := time.Now()
	audio, err := s.tts.Synthesize(ctx, text, voice)
	metrics.ObserveCall(metrics.OpSynthesize, start, err)

	if err != nil {
		s.log.Warn("synth fail", zap.String("voice", voice), zap.Error(err))
		s.notify(ctx, metrics.OpSynthesize, err, fmt.Sprintf("voice %s, %d chars", voice, len([]rune(text))))
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrSynthesisFailed)
	}
	return audio, nil
}

func (s *Service) notify(ctx context.Context, op string, err error, details string) {
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Notify(ctx, op, err, details); nerr != nil {
		s.log.Debug("notify fail", zap.Error(nerr))
	}
}

// TruncateText cuts text to at most limit code points.
func TruncateText(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
