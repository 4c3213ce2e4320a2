package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/kv"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/metrics"
	"github.com/Vovarama1992/language_buddy/internal/profile"
)

const (
	DefaultTimeout       = 60 * time.Second
	DefaultMinAudioBytes = 512

	subscriberBuffer = 32
)

type Option func(*Session)

// WithTimeout bounds every transcription and reply call.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMinAudioBytes sets the size below which a recording counts as silence
// and is never sent for transcription.
func WithMinAudioBytes(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.minAudio = n
		}
	}
}

func WithArchive(a Archiver) Option {
	return func(s *Session) { s.archive = a }
}

// Session: единственный диалог процесса.
type Session struct {
	capture  Recorder
	stt      Transcriber
	replies  ReplyGenerator
	profiles profile.Service
	store    kv.Store
	archive  Archiver
	timeout  time.Duration
	minAudio int
	log      *zap.Logger

	mu         sync.Mutex
	state      State
	messages   []Message
	generation uint64
	idle       chan struct{}
	subs       map[int]chan Event
	nextSub    int
	starting   bool // устройство открывается, состояние ещё idle
	closed     bool

	wg sync.WaitGroup
}

func NewSession(
	ctx context.Context,
	store kv.Store,
	capture Recorder,
	stt Transcriber,
	replies ReplyGenerator,
	profiles profile.Service,
	log *zap.Logger,
	opts ...Option,
) *Session {
	idle := make(chan struct{})
	close(idle)

	s := &Session{
		capture:  capture,
		stt:      stt,
		replies:  replies,
		profiles: profiles,
		store:    store,
		timeout:  DefaultTimeout,
		minAudio: DefaultMinAudioBytes,
		log:      log.Named("conversation"),
		state:    StateIdle,
		idle:     idle,
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.messages = s.loadHistory(ctx)
	return s
}

func (s *Session) loadHistory(ctx context.Context) []Message {
	var msgs []Message
	ok, err := kv.GetJSON(ctx, s.store, kv.KeyConversationHistory, &msgs)
	if err != nil {
		s.log.Warn("stored history unreadable, starting fresh", zap.Error(err))
		return welcome(WelcomeText)
	}
	if !ok || len(msgs) == 0 {
		return welcome(WelcomeText)
	}
	for _, m := range msgs {
		if !m.Role.Valid() {
			s.log.Warn("stored history has unknown role, starting fresh", zap.String("role", string(m.Role)))
			return welcome(WelcomeText)
		}
	}
	return msgs
}

func welcome(text string) []Message {
	return []Message{{Role: RoleSystem, Content: text}}
}

// =====================
// Запись
// =====================

// StartRecording is valid only from idle. Device errors leave the session idle.
// The device is opened without holding the session lock.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkStartLocked("start recording"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.starting = true
	s.mu.Unlock()

	err := s.capture.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false

	if err != nil {
		s.log.Warn("start recording fail", zap.Error(err))
		return err
	}
	if s.closed {
		if _, err := s.capture.Stop(); err != nil {
			s.log.Warn("stop capture after close", zap.Error(err))
		}
		return fmt.Errorf("%w: session closed", ErrInvalidTransition)
	}
	s.setStateLocked(StateRecording)
	return nil
}

func (s *Session) checkStartLocked(op string) error {
	switch {
	case s.closed:
		return fmt.Errorf("%w: %s after close", ErrInvalidTransition, op)
	case s.starting:
		return fmt.Errorf("%w: %s while the device is opening", ErrInvalidTransition, op)
	case s.state != StateIdle:
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, s.state)
	}
	return nil
}

// StopRecording finalizes the recording and hands it to transcription in the
// background.
func (s *Session) StopRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("%w: stop recording while %s", ErrInvalidTransition, s.state)
	}

	blob, err := s.capture.Stop()
	if err != nil {
		s.setStateLocked(StateIdle)
		return err
	}

	s.beginLocked(blob)
	return nil
}

// SubmitRecording processes an already finished recording as if it had just
// been stopped. Valid only from idle.
func (s *Session) SubmitRecording(ctx context.Context, blob audio.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStartLocked("submit recording"); err != nil {
		return err
	}

	s.beginLocked(blob)
	return nil
}

func (s *Session) beginLocked(blob audio.Blob) {
	s.setStateLocked(StateTranscribing)
	gen := s.generation

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(gen, blob)
	}()
}

// =====================
// Распознавание и ответ
// =====================

func (s *Session) process(gen uint64, blob audio.Blob) {
	if blob.Size() < s.minAudio || blob.Empty() {
		s.log.Debug("recording too short, skipped", zap.Int("bytes", blob.Size()))
		s.finish(gen)
		return
	}

	s.saveToArchive(blob)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	text, err := s.stt.Transcribe(ctx, blob)
	cancel()

	s.mu.Lock()
	if s.staleLocked(gen) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.appendLocked(Message{Role: RoleSystem, Content: "Transcription failed: " + err.Error()})
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		return
	}

	lang := langdetect.Classify(text)
	history := recentDialogue(s.messages, HistoryLimit)
	s.appendLocked(Message{Role: RoleUser, Content: text, DetectedLanguage: lang})
	s.setStateLocked(StateGeneratingReply)
	s.mu.Unlock()

	ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
	req := ReplyRequest{
		Text:     text,
		Language: lang,
		Profile:  s.profiles.Load(ctx),
		History:  history,
	}
	reply, err := s.replies.GenerateReply(ctx, req)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleLocked(gen) {
		return
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}
	if err != nil {
		s.appendLocked(Message{Role: RoleSystem, Content: "Failed to generate a reply: " + err.Error()})
	} else {
		s.appendLocked(Message{Role: RoleAssistant, Content: reply, DetectedLanguage: langdetect.Classify(reply)})
	}
	s.setStateLocked(StateIdle)
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleLocked(gen) {
		return
	}
	s.setStateLocked(StateIdle)
}

// staleLocked reports whether the result belongs to a generation that was
// cleared while it was in flight.
func (s *Session) staleLocked(gen uint64) bool {
	if gen == s.generation {
		return false
	}
	metrics.StaleDropped()
	s.log.Debug("stale result dropped", zap.Uint64("gen", gen), zap.Uint64("current", s.generation))
	return true
}

func (s *Session) saveToArchive(blob audio.Blob) {
	if s.archive == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		key, err := s.archive.Save(ctx, blob)
		metrics.ObserveCall(metrics.OpArchive, start, err)
		if err != nil {
			s.log.Warn("archive recording fail", zap.Error(err))
			return
		}
		s.log.Debug("recording archived", zap.String("key", key))
	}()
}

// recentDialogue returns the last limit user/assistant messages in order.
func recentDialogue(msgs []Message, limit int) []Message {
	out := make([]Message, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if msgs[i].Role == RoleSystem {
			continue
		}
		out = append(out, msgs[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// =====================
// Профиль и очистка
// =====================

// UpdateProfile saves p and appends a notice. It never interrupts a
// recording or a pending reply.
func (s *Session) UpdateProfile(ctx context.Context, p profile.Profile) error {
	if err := s.profiles.Save(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf("Profile updated! Your Japanese level is now set to %s.", p.Level),
	})
	return nil
}

// Clear resets the history to a single notice and erases the stored copy.
// Results still in flight are dropped when they arrive.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return fmt.Errorf("%w: clear while recording", ErrInvalidTransition)
	}

	s.generation++
	s.messages = welcome(ClearedText)
	if err := s.store.Delete(ctx, kv.KeyConversationHistory); err != nil {
		s.log.Warn("erase stored history fail", zap.Error(err))
	}

	s.setStateLocked(StateIdle)
	s.publishLocked(Event{Type: EventCleared, State: s.state})
	return nil
}

// =====================
// Чтение состояния
// =====================

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Messages: append([]Message(nil), s.messages...)}
}

// Message returns the message at index.
func (s *Session) Message(index int) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.messages) {
		return Message{}, false
	}
	return s.messages[index], true
}

// WaitIdle blocks until the session is idle or ctx is done.
func (s *Session) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel of session events and a cancel func. Slow
// subscribers miss events rather than block the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Close stops an active recording and waits for background work.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.state == StateRecording {
		if _, err := s.capture.Stop(); err != nil {
			s.log.Warn("stop capture on close", zap.Error(err))
		}
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// =====================
// Внутреннее
// =====================

func (s *Session) setStateLocked(st State) {
	if s.state == st {
		return
	}
	prev := s.state
	s.state = st

	metrics.Transition(string(st))
	s.log.Debug("state", zap.String("from", string(prev)), zap.String("to", string(st)))
	s.publishLocked(Event{Type: EventState, State: st})

	switch {
	case st == StateIdle:
		close(s.idle)
	case prev == StateIdle:
		s.idle = make(chan struct{})
	}
}

func (s *Session) appendLocked(m Message) {
	s.messages = append(s.messages, m)
	if err := kv.SetJSON(context.Background(), s.store, kv.KeyConversationHistory, s.messages); err != nil {
		s.log.Warn("persist history fail", zap.Error(err))
	}
	s.publishLocked(Event{Type: EventMessage, State: s.state, Message: &m})
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
