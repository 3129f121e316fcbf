package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/queue"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ActionEnqueuer accepts actions for the worker simulating a character
type ActionEnqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// QueuedPublisher announces accepted actions; optional
type QueuedPublisher interface {
	PublishActionQueued(ctx context.Context, characterID uuid.UUID, requestID, actionType string) error
}

// ActionRequest is the body of POST /v1/characters/{id}/actions
type ActionRequest struct {
	Type       queue.RequestType `json:"type"`
	ItemID     string            `json:"item_id,omitempty"`
	MerchantID string            `json:"merchant_id,omitempty"`
	Quantity   int               `json:"quantity,omitempty"`
	Slot       string            `json:"slot,omitempty"`
	Expression string            `json:"expression,omitempty"`
	Value      float64           `json:"value,omitempty"`
	Minutes    float64           `json:"minutes,omitempty"`
	Movement   string            `json:"movement,omitempty"`
	Sprinting  bool              `json:"sprinting,omitempty"`
	Amount     float64           `json:"amount,omitempty"`
}

// ActionResponse acknowledges a queued action
type ActionResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type CharacterHandler struct {
	storage storage.Storage
	actions ActionEnqueuer
	events  QueuedPublisher
	logger  *slog.Logger
}

func NewCharacterHandler(storage storage.Storage, actions ActionEnqueuer, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		storage: storage,
		actions: actions,
		logger:  logger,
	}
}

// WithEvents sets the publisher for action.queued events
// Returns the CharacterHandler for method chaining
func (h *CharacterHandler) WithEvents(p QueuedPublisher) *CharacterHandler {
	h.events = p
	return h
}

// ServeHTTP handles HTTP requests for characters
// Routes:
// GET /v1/characters                   - List saved character IDs
// GET /v1/characters/{id}              - Read the last saved record
// DELETE /v1/characters/{id}           - Delete a saved record
// POST /v1/characters/{id}/actions     - Queue an action for the worker
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")
	if path == "" {
		if r.Method != http.MethodGet {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleList(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid character ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid character ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case len(parts) == 2 && parts[1] == "actions" && r.Method == http.MethodPost:
		h.handleAction(w, r, id)
	case len(parts) <= 2:
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		h.writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *CharacterHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListCharacters(r.Context())
	if err != nil {
		h.logger.Error("Failed to list characters", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list characters")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"characters": ids})
}

func (h *CharacterHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rec, err := h.storage.LoadCharacter(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load character", "character_id", id.String(), "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load character")
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "Character not found")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *CharacterHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteCharacter(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete character", "character_id", id.String(), "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete character")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CharacterHandler) handleAction(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req := queue.NewRequest(body.Type, id)
	req.ItemID = body.ItemID
	req.MerchantID = body.MerchantID
	req.Quantity = body.Quantity
	req.Slot = body.Slot
	req.Expression = body.Expression
	req.Value = body.Value
	req.Minutes = body.Minutes
	req.Movement = body.Movement
	req.Sprinting = body.Sprinting
	req.Amount = body.Amount

	if err := h.actions.Enqueue(r.Context(), req); err != nil {
		if errors.Is(err, queue.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to enqueue action", "character_id", id.String(), "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to enqueue action")
		return
	}

	h.logger.Info("Action queued",
		"character_id", id.String(),
		"request_id", req.RequestID,
		"type", req.Type)

	if h.events != nil {
		if err := h.events.PublishActionQueued(r.Context(), id, req.RequestID, string(req.Type)); err != nil {
			h.logger.Error("Failed to publish queued event", "error", err)
		}
	}

	h.writeJSON(w, http.StatusAccepted, ActionResponse{RequestID: req.RequestID, Status: "queued"})
}

func (h *CharacterHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *CharacterHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}
