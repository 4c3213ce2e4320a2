package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/speech"
)

const (
	maxChunkBytes  = 10 << 20
	maxUploadBytes = 25 << 20
	heartbeatEvery = 15 * time.Second
)

type ChunkSink interface {
	Push(chunk []byte) error
}

type ConversationHandler struct {
	session *conversation.Session
	device  ChunkSink
	players *speech.Players
	log     *logger.ZapLogger
}

func NewConversationHandler(
	session *conversation.Session,
	device ChunkSink,
	players *speech.Players,
	log *logger.ZapLogger,
) *ConversationHandler {
	return &ConversationHandler{session: session, device: device, players: players, log: log}
}

// GET /conversation
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// DELETE /conversation
func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Clear(r.Context()); err != nil {
		writeError(w, h.log, "clear failed", err)
		return
	}
	if h.players != nil {
		h.players.Reset()
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// POST /conversation/recording
func (h *ConversationHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartRecording(r.Context()); err != nil {
		writeError(w, h.log, "start recording failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"state": h.session.State()})
}

// PUT /conversation/recording, тело запроса это очередной кусок записи
func (h *ConversationHandler) PushChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChunkBytes))
	if err != nil {
		badRequest(w, "failed to read chunk: "+err.Error())
		return
	}
	if err := h.device.Push(chunk); err != nil {
		writeError(w, h.log, "push chunk failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /conversation/recording/stop[?wait=1]
func (h *ConversationHandler) StopRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StopRecording(r.Context()); err != nil {
		writeError(w, h.log, "stop recording failed", err)
		return
	}
	h.respondAfterSubmit(w, r)
}

// POST /conversation/audio: multipart, поле "audio"
func (h *ConversationHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "invalid multipart: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		badRequest(w, "missing audio: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read audio: "+err.Error())
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = audio.DefaultMIMEType
	}

	blob := audio.Blob{Data: data, MIMEType: mimeType, Chunks: 1}
	if err := h.session.SubmitRecording(r.Context(), blob); err != nil {
		writeError(w, h.log, "submit recording failed", err)
		return
	}
	h.respondAfterSubmit(w, r)
}

func (h *ConversationHandler) respondAfterSubmit(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "" {
		writeJSON(w, http.StatusAccepted, h.session.Snapshot())
		return
	}

	if err := h.session.WaitIdle(r.Context()); err != nil {
		writeJSON(w, http.StatusAccepted, h.session.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// GET /conversation/events: server-sent events
func (h *ConversationHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.log, "streaming unsupported", errors.New("streaming unsupported"))
		return
	}

	events, cancel := h.session.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", h.session.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, string(ev.Type), ev); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

// WaitIdleTimeout ограничивает ожидание ответа при ?wait=1.
func WaitIdleTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("wait") == "" || d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
