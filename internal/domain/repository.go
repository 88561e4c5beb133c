package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ProductRepository stores tracked products in insertion order
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	// UpdateFunc applies fn to the stored product and saves the result
	// atomically. An error from fn aborts the write and is returned as is.
	UpdateFunc(ctx context.Context, id string, fn func(*Product) error) (*Product, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, products []Product) error
}

// HistoryRepository stores search results newest first
type HistoryRepository interface {
	Append(ctx context.Context, rec SearchRecord) error
	List(ctx context.Context, limit int) ([]SearchRecord, error)
}

// ChatCompleter sends a chat completion to an OpenAI-compatible endpoint
type ChatCompleter interface {
	Complete(ctx context.Context, apiKey string, req *CompletionRequest) (*CompletionResponse, error)
}

// SearchProvider runs a web search for a product
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, kind SearchKind) ([]SearchHit, error)
}
