package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/language_buddy/internal/conversation"
	"github.com/Vovarama1992/language_buddy/internal/profile"
)

type ProfileHandler struct {
	profiles profile.Service
	session  *conversation.Session
	log      *logger.ZapLogger
}

func NewProfileHandler(profiles profile.Service, session *conversation.Session, log *logger.ZapLogger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, session: session, log: log}
}

// GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profiles.Load(r.Context()))
}

// PUT /profile: полная замена; в чат уходит уведомление
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	if err := h.session.UpdateProfile(r.Context(), body); err != nil {
		writeError(w, h.log, "update profile failed", err)
		return
	}
	writeJSON(w, http.StatusOK, h.profiles.Load(r.Context()))
}

// POST /profile/interests
func (h *ProfileHandler) AddInterest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Interest string `json:"interest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	p, err := h.profiles.AddInterest(r.Context(), body.Interest)
	if err != nil {
		writeError(w, h.log, "add interest failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DELETE /profile/interests/{index}
func (h *ProfileHandler) RemoveInterest(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		badRequest(w, "invalid interest index")
		return
	}

	p, err := h.profiles.RemoveInterest(r.Context(), idx)
	if err != nil {
		writeError(w, h.log, "remove interest failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
