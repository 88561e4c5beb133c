package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

const (
	apiKeyPrefix      = "sk-"
	serverlessVersion = "2.0"
)

// GatewayConfig holds configuration for the LLM gateway
type GatewayConfig struct {
	// ServerAPIKey is used when a request carries no key of its own
	ServerAPIKey string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// GatewayService validates chat requests, augments them with search results
// and forwards them to the chat-completions endpoint.
type GatewayService struct {
	llm    domain.ChatCompleter
	search *SearchService
	config GatewayConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewGatewayService creates a gateway. search may be nil to disable augmentation.
func NewGatewayService(llm domain.ChatCompleter, search *SearchService, config GatewayConfig, logger *zap.Logger) *GatewayService {
	if config.Model == "" {
		config.Model = domain.DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = domain.DefaultTemperature
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = domain.DefaultMaxTokens
	}

	return &GatewayService{
		llm:    llm,
		search: search,
		config: config,
		logger: logger.Named("gateway"),
		now:    time.Now,
	}
}

// Configured reports whether server-side calls have a key to use
func (s *GatewayService) Configured() bool {
	return s.config.ServerAPIKey != ""
}

// Validate checks a request in order: key presence, key format, messages.
// It returns the key the upstream call should use.
func (s *GatewayService) Validate(req *domain.ChatRequest) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.config.ServerAPIKey
	}

	if apiKey == "" {
		return "", domain.NewValidationError(domain.CodeMissingAPIKey, "OpenAI API key is required")
	}
	if !strings.HasPrefix(apiKey, apiKeyPrefix) {
		return "", domain.NewValidationError(domain.CodeInvalidAPIKeyFormat, `API key must start with "sk-"`)
	}
	if len(req.Messages) == 0 {
		return "", domain.NewValidationError(domain.CodeMissingMessages, "Messages array is required and should not be empty")
	}
	if req.SearchType != "" {
		if _, err := domain.ParseSearchKind(req.SearchType); err != nil {
			return "", domain.NewValidationError(domain.CodeInvalidSearchType, "searchType must be competitor or avito")
		}
	}
	return apiKey, nil
}

// Chat runs one proxied completion and decorates the answer with metadata
func (s *GatewayService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	start := s.now()

	apiKey, err := s.Validate(req)
	if err != nil {
		return nil, err
	}

	upstream := &domain.CompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: s.config.Temperature,
	}
	if upstream.Model == "" {
		upstream.Model = s.config.Model
	}
	if upstream.MaxTokens <= 0 {
		upstream.MaxTokens = s.config.MaxTokens
	}
	if req.Temperature != nil {
		upstream.Temperature = *req.Temperature
	}

	meta := domain.ResponseMetadata{
		ServerlessVersion: serverlessVersion,
		Model:             upstream.Model,
	}

	if req.SearchQuery != "" && s.search != nil {
		kind := domain.SearchKindCompetitor
		if req.SearchType != "" {
			kind = domain.SearchKind(req.SearchType)
		}
		result, err := s.search.Search(ctx, req.SearchQuery, kind)
		if err != nil {
			s.logger.Warn("search augmentation skipped", zap.String("query", req.SearchQuery), zap.Error(err))
		} else {
			upstream.Messages = InjectSearchContext(req.Messages, FormatHits(req.SearchQuery, kind, result.Hits))
			meta.SearchProvider = result.Provider
			meta.SearchResults = len(result.Hits)
		}
	}

	s.logger.Info("forwarding completion",
		zap.String("model", upstream.Model),
		zap.Float64("temperature", upstream.Temperature),
		zap.Int("max_tokens", upstream.MaxTokens),
		zap.Int("messages", len(upstream.Messages)),
	)

	resp, err := s.llm.Complete(ctx, apiKey, upstream)
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	meta.Timestamp = s.now().UTC()
	meta.ProcessingTime = s.now().Sub(start).String()
	meta.IsStructured = content != "" && json.Valid([]byte(content))
	if resp.Usage != nil {
		meta.TokensUsed = resp.Usage.TotalTokens
	}

	return &domain.ChatResponse{CompletionResponse: *resp, Metadata: meta}, nil
}

// Prompt is a server-side question to the model
type Prompt struct {
	System    string
	User      string
	MaxTokens int
	// SearchQuery, when set, grounds the answer in search results of Kind
	SearchQuery string
	Kind        domain.SearchKind
}

// Ask sends a prompt with the server key and returns the answer text
func (s *GatewayService) Ask(ctx context.Context, p Prompt) (string, error) {
	if !s.Configured() {
		return "", domain.ErrLLMNotConfigured
	}

	req := &domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: p.System},
			{Role: domain.RoleUser, Content: p.User},
		},
		MaxTokens:   p.MaxTokens,
		SearchQuery: p.SearchQuery,
	}
	if p.SearchQuery != "" {
		req.SearchType = string(p.Kind)
	}

	resp, err := s.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyCompletion
	}
	return resp.Content(), nil
}
