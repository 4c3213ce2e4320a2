package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/language_buddy/internal/vocabulary"
)

type VocabularyHandler struct {
	svc vocabulary.Service
	log *logger.ZapLogger
}

func NewVocabularyHandler(svc vocabulary.Service, log *logger.ZapLogger) *VocabularyHandler {
	return &VocabularyHandler{svc: svc, log: log}
}

// GET /vocabulary
func (h *VocabularyHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

// POST /vocabulary
func (h *VocabularyHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Japanese string `json:"japanese"`
		English  string `json:"english"`
		Romaji   string `json:"romaji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	item, err := h.svc.Add(r.Context(), body.Japanese, body.English, body.Romaji)
	if err != nil {
		writeError(w, h.log, "add word failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// POST /vocabulary/{index}/review
func (h *VocabularyHandler) Review(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		badRequest(w, "invalid index")
		return
	}

	item, err := h.svc.Review(r.Context(), idx)
	if err != nil {
		writeError(w, h.log, "review failed", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DELETE /vocabulary/{index}
func (h *VocabularyHandler) Remove(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		badRequest(w, "invalid index")
		return
	}

	if err := h.svc.Remove(r.Context(), idx); err != nil {
		writeError(w, h.log, "remove failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
