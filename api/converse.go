package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/phoenixr49/hugbridge/internal/agent"
	"github.com/phoenixr49/hugbridge/internal/log"
)

// MaxTextLength bounds the utterance size accepted from the host.
const MaxTextLength = 8192

// TurnProcessor is the agent surface the handler consumes.
// *agent.Agent satisfies it; tests substitute fakes.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, in agent.Input) agent.Result
}

// ConverseHandler handles the conversation endpoint.
//
// POST /api/conversation/process takes {text, conversation_id?, language?}
// and returns the intent-response envelope. Agent-level failures are
// reported inside the envelope with HTTP 200; only transport-level
// problems (malformed body, missing text) produce HTTP errors.
type ConverseHandler struct {
	processor TurnProcessor
	logger    log.Logger
}

// NewConverseHandler creates the conversation handler.
func NewConverseHandler(processor TurnProcessor, logger log.Logger) *ConverseHandler {
	return &ConverseHandler{processor: processor, logger: logger}
}

// RegisterRoutes registers conversation routes on the given mux.
func (h *ConverseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/conversation/process", h.process)
}

func (h *ConverseHandler) process(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		h.logger.Error("turn processor is nil")
		writeError(w, http.StatusInternalServerError, "internal", "agent not configured")
		return
	}

	var req ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}
	if len(req.Text) > MaxTextLength {
		writeError(w, http.StatusBadRequest, "text_too_long", "text exceeds maximum length")
		return
	}

	result := h.processor.ProcessTurn(r.Context(), agent.Input{
		ConversationID: req.ConversationID,
		Text:           req.Text,
	})

	if !result.OK() {
		h.logger.Warn("turn failed",
			"kind", result.Err.Kind,
			"conversation_id", result.ConversationID)
	}

	writeJSON(w, http.StatusOK, envelope(result, req.Language))
}
