package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phoenixr49/hugbridge/internal/agent"
)

// Intent-response envelope mirroring the host platform's conversation
// protocol. The adapter below is pure field mapping from agent.Result.

// ResponseType values for IntentResponse.
const (
	ResponseTypeActionDone = "action_done"
	ResponseTypeError      = "error"
)

// ConverseRequest is the inbound payload for one user utterance.
// ConversationID is empty or absent for a new conversation.
type ConverseRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
}

// ConverseResponse is the response envelope returned to the host.
type ConverseResponse struct {
	ConversationID string         `json:"conversation_id"`
	Response       IntentResponse `json:"response"`
}

// IntentResponse carries either spoken output or a structured error.
type IntentResponse struct {
	ResponseType string      `json:"response_type"`
	Language     string      `json:"language,omitempty"`
	Speech       SpeechBlock `json:"speech"`
	Error        *IntentErr  `json:"error,omitempty"`
}

// SpeechBlock wraps the plain speech text.
type SpeechBlock struct {
	Plain PlainSpeech `json:"plain"`
}

// PlainSpeech is the text to be read aloud.
type PlainSpeech struct {
	Speech string `json:"speech"`
}

// IntentErr identifies the failure class for the host.
type IntentErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope converts an agent result into the host envelope. Error
// results keep the speech field populated with the error message so
// voice frontends can read it back.
func envelope(res agent.Result, language string) ConverseResponse {
	out := ConverseResponse{
		ConversationID: res.ConversationID,
		Response: IntentResponse{
			ResponseType: ResponseTypeActionDone,
			Language:     language,
			Speech:       SpeechBlock{Plain: PlainSpeech{Speech: res.Speech}},
		},
	}
	if res.Err != nil {
		out.Response.ResponseType = ResponseTypeError
		out.Response.Speech.Plain.Speech = res.Err.Message
		out.Response.Error = &IntentErr{
			Code:    string(res.Err.Kind),
			Message: res.Err.Message,
		}
	}
	return out
}

// writeJSON writes a JSON response with the given status code.
// If encoding fails after WriteHeader the status is already sent; the
// error is logged and the response is left as-is.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response for transport-level
// failures (bad request bodies and the like).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a transport-level error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
