package delivery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/kv"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/profile"
	"github.com/Vovarama1992/language_buddy/internal/speech"
	"github.com/Vovarama1992/language_buddy/internal/vocabulary"
)

// ===== fakes =====

type stubSTT struct{ text string }

func (s stubSTT) Transcribe(ctx context.Context, blob audio.Blob) (string, error) {
	return s.text, nil
}

type stubReplies struct{ text string }

func (s stubReplies) GenerateReply(ctx context.Context, req conversation.ReplyRequest) (string, error) {
	return s.text, nil
}

type stubSynth struct{ err error }

func (s stubSynth) Synthesize(ctx context.Context, text string, lang langdetect.Language) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("mp3:" + string(lang)), nil
}

type stubTrack struct {
	mu      sync.Mutex
	playing bool
}

func (t *stubTrack) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = true
	return nil
}

func (t *stubTrack) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	return nil
}

func (t *stubTrack) Release() error { return nil }

type stubOutput struct{}

func (stubOutput) Load(audio []byte, onEnd func()) (speech.Track, error) {
	return &stubTrack{}, nil
}

// ===== helpers =====

type testServer struct {
	router  chi.Router
	session *conversation.Session
}

func newTestServer(t *testing.T, synthErr error) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	store := kv.NewMemoryStore()
	device := audio.NewPushDevice()
	capture := audio.NewCapture(device, "", log)
	profiles := profile.NewService(store, log)
	session := conversation.NewSession(ctx, store, capture,
		stubSTT{text: "hello"}, stubReplies{text: "こんにちは！"}, profiles, log,
		conversation.WithMinAudioBytes(1),
	)
	t.Cleanup(func() { _ = session.Close() })

	players := speech.NewPlayers(stubSynth{err: synthErr}, stubOutput{}, time.Second, log)
	vocab := vocabulary.NewService(ctx, store, log)
	zl := logger.NewZapLogger(log.Sugar())

	router := NewRouter(
		NewConversationHandler(session, device, players, zl),
		NewSpeechHandler(session, players, zl),
		NewProfileHandler(profiles, session, zl),
		NewVocabularyHandler(vocab, zl),
		RouteOptions{RateLimitPerMinute: 1000, WaitTimeout: 2 * time.Second},
	)
	return &testServer{router: router, session: session}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if v != nil {
		var err error
		body, err = json.Marshal(v)
		require.NoError(t, err)
	}
	return s.do(t, method, path, body, "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) turn(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/conversation/recording", nil, "").Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPut, "/conversation/recording", []byte("opus-bytes"), "audio/webm").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/conversation/recording/stop?wait=1", nil, "").Code)
}

// ===== tests =====

func TestPing(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordingFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/conversation", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[conversation.Snapshot](t, rec)
	assert.Equal(t, conversation.StateIdle, snap.State)
	assert.Len(t, snap.Messages, 1)

	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/conversation/recording", nil, "").Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/conversation/recording", nil, "").Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPut, "/conversation/recording", []byte("chunk-1"), "").Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPut, "/conversation/recording", []byte("chunk-2"), "").Code)

	rec = s.do(t, http.MethodPost, "/conversation/recording/stop?wait=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[conversation.Snapshot](t, rec)
	assert.Equal(t, conversation.StateIdle, snap.State)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "hello", snap.Messages[1].Content)
	assert.Equal(t, langdetect.English, snap.Messages[1].DetectedLanguage)
	assert.Equal(t, conversation.RoleAssistant, snap.Messages[2].Role)
	assert.Equal(t, langdetect.Japanese, snap.Messages[2].DetectedLanguage)
}

func TestRecording_InvalidTransitions(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPut, "/conversation/recording", []byte("x"), "").Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/conversation/recording/stop", nil, "").Code)

	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/conversation/recording", nil, "").Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/conversation", nil, "").Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "clip.webm")
	require.NoError(t, err)
	_, _ = part.Write([]byte("webm-bytes"))
	require.NoError(t, mw.Close())

	rec := s.do(t, http.MethodPost, "/conversation/audio?wait=1", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[conversation.Snapshot](t, rec)
	assert.Len(t, snap.Messages, 3)

	rec = s.do(t, http.MethodPost, "/conversation/audio", []byte("nope"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearConversation(t *testing.T) {
	s := newTestServer(t, nil)
	s.turn(t)

	rec := s.do(t, http.MethodDelete, "/conversation", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[conversation.Snapshot](t, rec)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, conversation.ClearedText, snap.Messages[0].Content)
}

func TestSpeechToggle(t *testing.T) {
	s := newTestServer(t, nil)
	s.turn(t)

	rec := s.do(t, http.MethodPost, "/conversation/messages/2/speech", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3:japanese", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/conversation/messages/2/speech", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/conversation/messages/1/speech", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mp3:english", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/conversation/messages/0/speech", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/conversation/messages/42/speech", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/conversation/messages/x/speech", nil, "").Code)
}

func TestSpeechSynthesisFailure(t *testing.T) {
	s := newTestServer(t, errors.New("tts down"))
	s.turn(t)

	rec := s.do(t, http.MethodPost, "/conversation/messages/2/speech", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "tts down")
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/profile", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, profile.Default(), decode[profile.Profile](t, rec))

	rec = s.doJSON(t, http.MethodPut, "/profile", profile.Profile{NativeLanguage: "english", Level: profile.Intermediate})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, profile.Intermediate, decode[profile.Profile](t, rec).Level)

	msgs := s.session.Messages()
	assert.Equal(t, "Profile updated! Your Japanese level is now set to intermediate.", msgs[len(msgs)-1].Content)

	rec = s.doJSON(t, http.MethodPut, "/profile", map[string]string{"level": "expert"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/profile/interests", map[string]string{"interest": " anime "})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"anime"}, decode[profile.Profile](t, rec).Interests)

	assert.Equal(t, http.StatusBadRequest, s.doJSON(t, http.MethodPost, "/profile/interests", map[string]string{"interest": " "}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/profile/interests/3", nil, "").Code)

	rec = s.do(t, http.MethodDelete, "/profile/interests/0", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[profile.Profile](t, rec).Interests)
}

func TestVocabularyRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.doJSON(t, http.MethodPost, "/vocabulary", map[string]string{"japanese": "", "english": "meaning"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/vocabulary", map[string]string{"japanese": "猫", "english": "cat", "romaji": "neko"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "neko", decode[vocabulary.Item](t, rec).Romaji)

	rec = s.do(t, http.MethodPost, "/vocabulary/0/review", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[vocabulary.Item](t, rec).ReviewCount)

	rec = s.do(t, http.MethodGet, "/vocabulary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]vocabulary.Item](t, rec), 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/vocabulary/5/review", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/vocabulary/5", nil, "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/vocabulary/0", nil, "").Code)
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/conversation/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: {"))
	_, _ = reader.ReadString('\n')

	s.turn(t)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: state\n", line)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		vocabulary.ErrValidation:          http.StatusBadRequest,
		profile.ErrInvalidLevel:           http.StatusBadRequest,
		vocabulary.ErrOutOfRange:          http.StatusNotFound,
		conversation.ErrInvalidTransition: http.StatusConflict,
		speech.ErrBusy:                    http.StatusConflict,
		audio.ErrPermissionDenied:         http.StatusForbidden,
		audio.ErrDeviceUnavailable:        http.StatusServiceUnavailable,
		speech.ErrSynthesisFailed:         http.StatusBadGateway,
		errors.New("other"):               http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
