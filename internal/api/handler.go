// Package api provides the HTTP surface of the dialogue engine, consumed by
// the platform UI. Authentication is handled upstream; the owner identity
// arrives in the X-User-ID header.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"agrichat/internal/common/errors"
	"agrichat/internal/common/logger"
	"agrichat/internal/dialogue/engine"
	"agrichat/internal/models"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies well above the message length limit.
const maxBodyBytes = 64 << 10

type Handler struct {
	engine *engine.Engine
	errs   *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(eng *engine.Engine, log logger.Logger) *Handler {
	return &Handler{
		engine: eng,
		errs:   errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{"component": "chat-api"}),
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat/sessions", func(r chi.Router) {
		r.Post("/", h.startSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.endSession)
			r.Post("/messages", h.sendMessage)
			r.Post("/feedback", h.updateFeedback)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func ownerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.errs.Respond(w, errors.NewValidationError("request body unreadable or too large"))
		return nil, false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	return body, true
}

type startSessionRequest struct {
	Context models.UserContext `json:"context"`
}

type startSessionResponse struct {
	SessionID       string               `json:"sessionId"`
	InitialResponse *models.ChatResponse `json:"initialResponse"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		h.errs.Respond(w, errors.NewValidationError("X-User-ID header is required"))
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := validateBody(startSessionSchema, body); err != nil {
		h.errs.Respond(w, err)
		return
	}

	var req startSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errs.Respond(w, errors.NewValidationError("malformed JSON body"))
		return
	}

	sessionID, initial, err := h.engine.StartSession(r.Context(), owner, req.Context)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}

	JSON(w, http.StatusCreated, startSessionResponse{
		SessionID:       sessionID,
		InitialResponse: initial,
	})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		h.errs.Respond(w, errors.NewValidationError("X-User-ID header is required"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := validateBody(sendMessageSchema, body); err != nil {
		h.errs.Respond(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errs.Respond(w, errors.NewValidationError("malformed JSON body"))
		return
	}

	response, err := h.engine.SendMessage(r.Context(), owner, sessionID, req.Message)
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	JSON(w, http.StatusOK, response)
}

// sessionResponse is the wire shape of a session. The store's concurrency
// version stays internal and is not part of the API contract.
type sessionResponse struct {
	SessionID    string             `json:"sessionId"`
	OwnerID      string             `json:"ownerId"`
	Turns        []models.Turn      `json:"turns"`
	Context      models.UserContext `json:"context"`
	IsActive     bool               `json:"isActive"`
	LastActivity time.Time          `json:"lastActivity"`
	Satisfaction int                `json:"satisfaction,omitempty"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		SessionID:    s.ID,
		OwnerID:      s.OwnerID,
		Turns:        s.Turns,
		Context:      s.Context,
		IsActive:     s.IsActive,
		LastActivity: s.LastActivity,
		Satisfaction: s.Satisfaction,
	}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		h.errs.Respond(w, errors.NewValidationError("X-User-ID header is required"))
		return
	}

	session, err := h.engine.GetSession(r.Context(), owner, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errs.Respond(w, err)
		return
	}
	JSON(w, http.StatusOK, toSessionResponse(session))
}

type feedbackRequest struct {
	Rating int `json:"rating"`
}

func (h *Handler) updateFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := validateBody(feedbackSchema, body); err != nil {
		h.errs.Respond(w, err)
		return
	}

	var req feedbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errs.Respond(w, errors.NewValidationError("malformed JSON body"))
		return
	}

	if err := h.engine.UpdateFeedback(r.Context(), sessionID, req.Rating); err != nil {
		h.errs.Respond(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		h.errs.Respond(w, errors.NewValidationError("X-User-ID header is required"))
		return
	}

	if err := h.engine.EndSession(r.Context(), owner, chi.URLParam(r, "sessionID")); err != nil {
		h.errs.Respond(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
