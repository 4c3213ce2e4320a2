package delivery

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/langdetect"
	"github.com/Vovarama1992/language_buddy/internal/speech"
)

type SpeechHandler struct {
	session *conversation.Session
	players *speech.Players
	log     *logger.ZapLogger
}

func NewSpeechHandler(session *conversation.Session, players *speech.Players, log *logger.ZapLogger) *SpeechHandler {
	return &SpeechHandler{session: session, players: players, log: log}
}

// POST /conversation/messages/{index}/speech
// Ответы: 200 mp3, 204 пауза, 409 синтез уже идёт, 502 синтез упал.
func (h *SpeechHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		badRequest(w, "invalid message index")
		return
	}

	msg, ok := h.session.Message(idx)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("message %d not found", idx)})
		return
	}
	if msg.Role == conversation.RoleSystem {
		badRequest(w, "system notices are not spoken")
		return
	}

	lang := msg.DetectedLanguage
	if !lang.Valid() {
		lang = langdetect.Classify(msg.Content)
	}

	player := h.players.Get(strconv.Itoa(idx) + "\x00" + msg.Content)
	res, err := player.Play(r.Context(), msg.Content, lang)
	if err != nil {
		writeError(w, h.log, "speech failed", err)
		return
	}

	if res.Action == speech.ActionPaused {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Audio)
}
