package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
	"github.com/pricescout/backend/internal/infrastructure/storage/memory"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

// MockCompleter is a mock implementation of domain.ChatCompleter.
// reply builds the answer text from the request; err fails every call.
type MockCompleter struct {
	mu       sync.Mutex
	reply    func(req *domain.CompletionRequest) string
	err      error
	noChoice bool
	calls    []*domain.CompletionRequest
	keys     []string
}

func NewMockCompleter(answer string) *MockCompleter {
	return &MockCompleter{reply: func(*domain.CompletionRequest) string { return answer }}
}

func (m *MockCompleter) Complete(ctx context.Context, apiKey string, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.keys = append(m.keys, apiKey)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	resp := &domain.CompletionResponse{
		ID:    "chatcmpl-test",
		Model: req.Model,
		Usage: &domain.CompletionUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}
	if !m.noChoice {
		resp.Choices = []domain.CompletionChoice{
			{Message: domain.ChatMessage{Role: domain.RoleAssistant, Content: m.reply(req)}},
		}
	}
	return resp, nil
}

func (m *MockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockCompleter) lastCall() *domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// MockSearchProvider is a mock implementation of domain.SearchProvider
type MockSearchProvider struct {
	mu    sync.Mutex
	name  string
	hits  []domain.SearchHit
	err   error
	calls int
}

func (m *MockSearchProvider) Name() string { return m.name }

func (m *MockSearchProvider) Search(ctx context.Context, query string, kind domain.SearchKind) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *MockSearchProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// newTestGateway wires a gateway with a server key and no search
func newTestGateway(llm domain.ChatCompleter) *GatewayService {
	return NewGatewayService(llm, nil, GatewayConfig{ServerAPIKey: "sk-server"}, zap.NewNop())
}

// seedProducts stores products in order and returns the repository
func seedProducts(products ...domain.Product) *memory.ProductRepository {
	repo := memory.NewProductRepository()
	for i := range products {
		_ = repo.Create(context.Background(), &products[i])
	}
	return repo
}

// gatedProducts holds the first UpdateFunc inside the store lock until
// release is closed, so another writer can queue up behind it
type gatedProducts struct {
	*memory.ProductRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedProducts(products ...domain.Product) *gatedProducts {
	return &gatedProducts{
		ProductRepository: seedProducts(products...),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gatedProducts) UpdateFunc(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return g.ProductRepository.UpdateFunc(ctx, id, fn)
	}
	return g.ProductRepository.UpdateFunc(ctx, id, func(p *domain.Product) error {
		close(g.entered)
		<-g.release
		return fn(p)
	})
}
