package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/vitals-engine/internal/services/events"
)

const keepaliveInterval = 30 * time.Second

// EventsHandler streams character events over Server-Sent Events
type EventsHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(redisClient *redis.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ServeHTTP handles SSE requests for one character
// GET /v1/events/characters/{characterID}[?types=action.applied,action.failed]
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "events" || pathParts[2] != "characters" {
		h.writeError(w, http.StatusBadRequest, "Invalid path. Expected /v1/events/characters/{characterID}")
		return
	}

	characterID, err := uuid.Parse(pathParts[3])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid character ID format.")
		return
	}

	wanted, err := parseTypeFilter(r.URL.Query().Get("types"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid types filter: "+err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	h.logger.Info("SSE connection established",
		"character_id", characterID.String(),
		"remote_addr", r.RemoteAddr,
		"types", r.URL.Query().Get("types"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	channel := events.Channel(characterID)
	pubsub := h.redisClient.Subscribe(r.Context(), channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription so no event published after "connected" is lost
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe", "channel", channel, "error", err)
		return
	}
	h.logger.Debug("Subscribed to channel", "channel", channel)

	msgChan := pubsub.Channel()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	if err := writeSSE(w, flusher, "connected", map[string]any{
		"character_id": characterID.String(),
		"message":      "Connected to event stream",
	}); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "character_id", characterID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			if wanted != nil && !wanted[event.Type] {
				continue
			}
			if err := writeSSE(w, flusher, string(event.Type), event); err != nil {
				h.logger.Error("Failed to write event", "error", err, "type", event.Type)
				return
			}

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// parseTypeFilter reads a comma-separated event type list; empty means all
func parseTypeFilter(raw string) (map[events.EventType]bool, error) {
	if raw == "" {
		return nil, nil
	}
	known := make(map[events.EventType]bool)
	for _, t := range events.EventTypes() {
		known[t] = true
	}
	wanted := make(map[events.EventType]bool)
	for name := range strings.SplitSeq(raw, ",") {
		t := events.EventType(strings.TrimSpace(name))
		if !known[t] {
			return nil, fmt.Errorf("unknown event type %q", t)
		}
		wanted[t] = true
	}
	return wanted, nil
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (h *EventsHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
