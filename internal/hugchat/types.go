package hugchat

// Conversation describes one remote conversation as reported by the
// service. The ID is the remote service's identifier and doubles as the
// local transcript key throughout the bridge.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Model string `json:"model,omitempty"`
}

// QueryOptions carries per-request sampling parameters. Zero values are
// replaced with the service defaults by the remote side, so callers
// should always populate all three fields from configuration.
type QueryOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// wire types for the simplified JSON endpoints.

type newConversationRequest struct {
	Model     string `json:"model"`
	Preprompt string `json:"preprompt,omitempty"`
}

type newConversationResponse struct {
	ConversationID string `json:"conversationId"`
}

type conversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type queryRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters queryParameters `json:"parameters"`
}

type queryParameters struct {
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

type queryResponse struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error,omitempty"`
}
