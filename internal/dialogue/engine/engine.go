// Package engine orchestrates dialogue turns and owns the session lifecycle.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"agrichat/internal/common/config"
	"agrichat/internal/common/errors"
	"agrichat/internal/common/logger"
	"agrichat/internal/common/metrics"
	"agrichat/internal/common/observability"
	"agrichat/internal/dialogue/accumulate"
	"agrichat/internal/dialogue/compose"
	"agrichat/internal/dialogue/extract"
	"agrichat/internal/dialogue/intent"
	"agrichat/internal/models"

	"github.com/google/uuid"
)

// SessionStore is the persistence collaborator. Save must perform an
// optimistic concurrency check on Session.Version and return a
// SESSION_CONFLICT error when a concurrent save won.
type SessionStore interface {
	Find(ctx context.Context, ownerID, sessionID string, activeOnly bool) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	UpdateFeedback(ctx context.Context, sessionID string, rating int) error
	// SetInactive reports whether it actually flipped an active session;
	// ending an already ended session is a no-op returning false.
	SetInactive(ctx context.Context, ownerID, sessionID string) (bool, error)
}

// Engine is the dialogue controller: it runs one turn per request,
// synchronously, and persists the session as a single atomic unit (both turns
// appended, one save).
type Engine struct {
	store    SessionStore
	composer *compose.Composer
	cfg      config.DialogueConfig
	logger   logger.Logger
	obs      *observability.Observability
}

func New(store SessionStore, composer *compose.Composer, cfg config.DialogueConfig, log logger.Logger, obs *observability.Observability) *Engine {
	return &Engine{
		store:    store,
		composer: composer,
		cfg:      cfg,
		logger:   log.With(map[string]interface{}{"component": "dialogue-engine"}),
		obs:      obs,
	}
}

// StartSession creates an ACTIVE session seeded with the initial context and
// runs one turn with the literal message "hello" to produce the greeting.
func (e *Engine) StartSession(ctx context.Context, ownerID string, initial models.UserContext) (string, *models.ChatResponse, error) {
	if ownerID == "" {
		return "", nil, errors.NewValidationError("ownerId is required")
	}

	session := &models.Session{
		ID:       "session_" + uuid.NewString(),
		OwnerID:  ownerID,
		Context:  initial,
		IsActive: true,
	}

	response := e.runTurn(ctx, session, "hello")
	session.UpdateActivity()

	if err := e.save(ctx, session); err != nil {
		return "", nil, err
	}

	metrics.SessionsActive.Inc()
	e.logger.Info("session started", map[string]interface{}{
		"sessionId": session.ID,
		"ownerId":   ownerID,
	})
	return session.ID, response, nil
}

// SendMessage processes one user turn against an ACTIVE session. The whole
// turn is retried on an optimistic save conflict, bounded by the configured
// retry budget; the load-mutate-save cycle therefore never loses an update.
func (e *Engine) SendMessage(ctx context.Context, ownerID, sessionID, text string) (*models.ChatResponse, error) {
	if err := e.validateMessage(ownerID, sessionID, text); err != nil {
		return nil, err
	}

	started := time.Now()
	var lastErr error
	for attempt := 0; attempt < e.cfg.TurnRetries; attempt++ {
		session, err := e.find(ctx, ownerID, sessionID, true)
		if err != nil {
			return nil, err
		}

		response := e.runTurn(ctx, session, text)
		session.UpdateActivity()

		err = e.save(ctx, session)
		if err == nil {
			metrics.TurnsProcessed.WithLabelValues(response.Intent).Inc()
			metrics.TurnDuration.WithLabelValues("send_message").Observe(time.Since(started).Seconds())
			if e.obs != nil {
				e.obs.RecordTurn(ctx, response.Intent, "ok")
				e.obs.RecordTurnDuration(ctx, time.Since(started), "ok")
			}
			return response, nil
		}

		if errors.IsCode(err, errors.ErrCodeSessionConflict) {
			metrics.SessionSaveConflicts.Inc()
			e.logger.Warn("session save conflict, retrying turn", map[string]interface{}{
				"sessionId": sessionID,
				"attempt":   attempt + 1,
			})
			lastErr = err
			continue
		}

		metrics.TurnsFailed.WithLabelValues("send_message", string(errors.AsStandard(err).Code)).Inc()
		return nil, err
	}

	metrics.TurnsFailed.WithLabelValues("send_message", string(errors.ErrCodeSessionStoreFailed)).Inc()
	return nil, errors.NewSessionStoreError(fmt.Errorf("turn retry budget exhausted: %w", lastErr))
}

// GetSession returns the full turn log of an ACTIVE session.
func (e *Engine) GetSession(ctx context.Context, ownerID, sessionID string) (*models.Session, error) {
	if ownerID == "" || sessionID == "" {
		return nil, errors.NewValidationError("ownerId and sessionId are required")
	}
	return e.find(ctx, ownerID, sessionID, true)
}

// UpdateFeedback records a satisfaction rating. Valid in any session state;
// a later rating overwrites an earlier one.
func (e *Engine) UpdateFeedback(ctx context.Context, sessionID string, rating int) error {
	if sessionID == "" {
		return errors.NewValidationError("sessionId is required")
	}
	if rating < 1 || rating > 5 {
		return errors.NewValidationError(fmt.Sprintf("rating must be between 1 and 5, got %d", rating))
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeoutDuration())
	defer cancel()

	if err := e.store.UpdateFeedback(sctx, sessionID, rating); err != nil {
		return e.mapStoreErr(err, "update_feedback")
	}
	return nil
}

// EndSession moves the session to its terminal state. Idempotent by value:
// ending an already ended session leaves the same terminal state.
func (e *Engine) EndSession(ctx context.Context, ownerID, sessionID string) error {
	if ownerID == "" || sessionID == "" {
		return errors.NewValidationError("ownerId and sessionId are required")
	}

	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeoutDuration())
	defer cancel()

	flipped, err := e.store.SetInactive(sctx, ownerID, sessionID)
	if err != nil {
		return e.mapStoreErr(err, "end_session")
	}

	// The gauge tracks ACTIVE sessions; a repeated end must not drift it.
	if flipped {
		metrics.SessionsActive.Dec()
	}
	e.logger.Info("session ended", map[string]interface{}{
		"sessionId": sessionID,
		"ownerId":   ownerID,
	})
	return nil
}

// runTurn executes classification, extraction, context merge and composition
// for one message, appending both turns to the in-memory session. Nothing in
// here can fail: the pipeline is total with safe defaults.
func (e *Engine) runTurn(ctx context.Context, session *models.Session, text string) *models.ChatResponse {
	normalized := intent.Normalize(text)
	it, confidence := intent.Classify(normalized)
	entities := extract.Entities(normalized)
	accumulate.Merge(&session.Context, entities)

	result := e.composer.Compose(ctx, it, session.Context)
	if e.cfg.MaxSuggestions > 0 && len(result.Suggestions) > e.cfg.MaxSuggestions {
		result.Suggestions = result.Suggestions[:e.cfg.MaxSuggestions]
	}

	now := time.Now().UTC()
	session.AppendTurn(models.Turn{
		Sender:     models.SenderUser,
		Text:       text,
		Timestamp:  now,
		Intent:     it.Name(),
		Confidence: confidence,
		Entities:   entities,
	})
	session.AppendTurn(models.Turn{
		Sender:    models.SenderBot,
		Text:      result.Message,
		Timestamp: now,
	})

	return &models.ChatResponse{
		Message:     result.Message,
		Intent:      it.Name(),
		Confidence:  confidence,
		Entities:    entities,
		Suggestions: result.Suggestions,
		Actions:     result.Actions,
	}
}

func (e *Engine) validateMessage(ownerID, sessionID, text string) error {
	if ownerID == "" || sessionID == "" {
		return errors.NewValidationError("ownerId and sessionId are required")
	}
	if len(text) == 0 {
		return errors.NewValidationError("message text is empty")
	}
	if len(text) > e.cfg.MaxMessageLength {
		return errors.NewValidationError(fmt.Sprintf("message text exceeds %d characters", e.cfg.MaxMessageLength))
	}
	return nil
}

func (e *Engine) find(ctx context.Context, ownerID, sessionID string, activeOnly bool) (*models.Session, error) {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeoutDuration())
	defer cancel()

	session, err := e.store.Find(sctx, ownerID, sessionID, activeOnly)
	if err != nil {
		return nil, e.mapStoreErr(err, "find")
	}
	return session, nil
}

func (e *Engine) save(ctx context.Context, session *models.Session) error {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeoutDuration())
	defer cancel()

	if err := e.store.Save(sctx, session); err != nil {
		return e.mapStoreErr(err, "save")
	}
	return nil
}

// mapStoreErr keeps taxonomy errors as-is and maps raw timeouts to the
// distinct transient code.
func (e *Engine) mapStoreErr(err error, op string) error {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewStoreTimeoutError(op)
	}
	return errors.NewSessionStoreError(err)
}
