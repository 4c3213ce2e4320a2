package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/profile"
	"github.com/Vovarama1992/language_buddy/internal/speech"
	"github.com/Vovarama1992/language_buddy/internal/vocabulary"
)

const serviceName = "language_buddy"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor сопоставляет доменные ошибки HTTP-кодам.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vocabulary.ErrValidation),
		errors.Is(err, profile.ErrInvalidLevel),
		errors.Is(err, profile.ErrEmptyInterest):
		return http.StatusBadRequest
	case errors.Is(err, vocabulary.ErrOutOfRange),
		errors.Is(err, profile.ErrInterestMissing):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrInvalidTransition),
		errors.Is(err, audio.ErrNotRecording),
		errors.Is(err, audio.ErrAlreadyRecording),
		errors.Is(err, speech.ErrBusy),
		errors.Is(err, speech.ErrPlayerClosed):
		return http.StatusConflict
	case errors.Is(err, audio.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, speech.ErrSynthesisFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, log *logger.ZapLogger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Log(logger.LogEntry{Level: "error", Message: msg, Service: serviceName, Error: err})
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func indexParam(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
