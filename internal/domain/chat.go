package domain

import "time"

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Defaults applied by the proxy when the browser omits them
const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 3000
)

// ChatMessage is a role-tagged chat message
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the LLM proxy endpoint
type ChatRequest struct {
	APIKey      string        `json:"apiKey"`
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"maxTokens,omitempty"`
	SearchQuery string        `json:"searchQuery,omitempty"`
	SearchType  string        `json:"searchType,omitempty"`
}

// CompletionRequest is the upstream chat-completions payload
type CompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	Stream           bool          `json:"stream"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
}

// CompletionChoice is one upstream choice
type CompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// CompletionUsage reports token accounting
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the upstream chat-completions response
type CompletionResponse struct {
	ID      string             `json:"id,omitempty"`
	Object  string             `json:"object,omitempty"`
	Created int64              `json:"created,omitempty"`
	Model   string             `json:"model,omitempty"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *CompletionUsage   `json:"usage,omitempty"`
}

// Content returns the text of the first choice
func (r *CompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ResponseMetadata is attached to every successful proxy response
type ResponseMetadata struct {
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTime    string    `json:"processingTime"`
	IsStructured      bool      `json:"isStructured"`
	ServerlessVersion string    `json:"serverlessVersion"`
	Model             string    `json:"model"`
	TokensUsed        int       `json:"tokensUsed"`
	SearchProvider    string    `json:"searchProvider,omitempty"`
	SearchResults     int       `json:"searchResults,omitempty"`
}

// ChatResponse is the proxy response: upstream completion plus metadata
type ChatResponse struct {
	CompletionResponse
	Metadata ResponseMetadata `json:"_metadata"`
}
