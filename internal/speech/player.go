package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/langdetect"
)

type PlaybackState string

const (
	PlaybackIdle    PlaybackState = "idle"
	PlaybackLoading PlaybackState = "loading"
	PlaybackPlaying PlaybackState = "playing"
)

type Action string

const (
	ActionPlaying Action = "playing"
	ActionPaused  Action = "paused"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang langdetect.Language) ([]byte, error)
}

type PlayResult struct {
	Action Action
	// Audio: mp3 текущего трека (только для ActionPlaying).
	Audio []byte
}

type loadedTrack struct {
	id    int
	text  string
	lang  langdetect.Language
	audio []byte
	track Track
}

// Player управляет одним проигрывателем: idle → loading → playing.
type Player struct {
	synth   Synthesizer
	out     Output
	timeout time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	state   PlaybackState
	current *loadedTrack
	nextID  int
	lastErr error
	closed  bool
}

func NewPlayer(synth Synthesizer, out Output, timeout time.Duration, log *zap.Logger) *Player {
	return &Player{
		synth:   synth,
		out:     out,
		timeout: timeout,
		log:     log.Named("player"),
		state:   PlaybackIdle,
	}
}

// Play toggles playback of text. While playing it pauses; while a synthesis
// request is in flight it returns ErrBusy; when idle it resumes the loaded
// track for the same text or synthesizes a new one.
func (p *Player) Play(ctx context.Context, text string, lang langdetect.Language) (PlayResult, error) {
	text = TruncateText(text, MaxSynthesisChars)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return PlayResult{}, ErrPlayerClosed
	}
	switch p.state {
	case PlaybackPlaying:
		err := p.current.track.Pause()
		p.state = PlaybackIdle
		p.mu.Unlock()
		if err != nil {
			p.log.Warn("pause failed", zap.Error(err))
		}
		return PlayResult{Action: ActionPaused}, nil

	case PlaybackLoading:
		p.mu.Unlock()
		return PlayResult{}, ErrBusy
	}

	// уже загружено, просто продолжаем
	if cur := p.current; cur != nil && cur.text == text && cur.lang == lang {
		if err := cur.track.Play(); err == nil {
			p.state = PlaybackPlaying
			p.lastErr = nil
			p.mu.Unlock()
			return PlayResult{Action: ActionPlaying, Audio: cur.audio}, nil
		}
	}

	p.state = PlaybackLoading
	p.lastErr = nil
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	loaded, err := p.load(ctx, id, text, lang)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.state = PlaybackIdle
		p.lastErr = err
		return PlayResult{}, err
	}
	// проигрыватель закрыли, пока шёл синтез
	if p.closed {
		if err := loaded.track.Release(); err != nil {
			p.log.Warn("release track failed", zap.Error(err))
		}
		p.state = PlaybackIdle
		return PlayResult{}, ErrPlayerClosed
	}

	// прежний ресурс освобождаем до того, как его заменит новый
	p.releaseCurrent()
	p.current = loaded

	if err := loaded.track.Play(); err != nil {
		p.releaseCurrent()
		p.state = PlaybackIdle
		p.lastErr = err
		return PlayResult{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	p.state = PlaybackPlaying
	return PlayResult{Action: ActionPlaying, Audio: loaded.audio}, nil
}

func (p *Player) load(ctx context.Context, id int, text string, lang langdetect.Language) (*loadedTrack, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	audio, err := p.synth.Synthesize(ctx, text, lang)
	if err != nil {
		if !errors.Is(err, ErrSynthesisFailed) {
			err = fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
		}
		return nil, err
	}

	track, err := p.out.Load(audio, func() { p.ended(id) })
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return &loadedTrack{id: id, text: text, lang: lang, audio: audio, track: track}, nil
}

func (p *Player) ended(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.id == id && p.state == PlaybackPlaying {
		p.state = PlaybackIdle
	}
}

func (p *Player) releaseCurrent() {
	if p.current == nil {
		return
	}
	if err := p.current.track.Release(); err != nil {
		p.log.Warn("release track failed", zap.Error(err))
	}
	p.current = nil
}

func (p *Player) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure of the last Play call, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close releases the loaded track. A synthesis still in flight is discarded
// when it finishes.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.releaseCurrent()
	p.state = PlaybackIdle
	return nil
}
