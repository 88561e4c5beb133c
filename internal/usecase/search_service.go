package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchResult is a set of hits and the provider that produced them
type SearchResult struct {
	Provider string
	Hits     []domain.SearchHit
}

// SearchService fetches web offers for a product to ground the LLM answer.
// Flow: check cache -> primary provider -> fallback provider -> cache -> return
type SearchService struct {
	cache    domain.CacheRepository
	primary  domain.SearchProvider
	fallback domain.SearchProvider
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSearchService creates a search service. primary may be nil, in which
// case every search goes to fallback.
func NewSearchService(
	cache domain.CacheRepository,
	primary domain.SearchProvider,
	fallback domain.SearchProvider,
	config SearchServiceConfig,
	logger *zap.Logger,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	return &SearchService{
		cache:    cache,
		primary:  primary,
		fallback: fallback,
		cacheTTL: cacheTTL,
		logger:   logger.Named("search"),
	}
}

// Search returns offers for query. A primary provider that fails or finds
// nothing degrades to the fallback instead of failing the request.
func (s *SearchService) Search(ctx context.Context, query string, kind domain.SearchKind) (*SearchResult, error) {
	normalized := domain.NormalizeQuery(query)
	if normalized == "" {
		return nil, domain.ErrInvalidRequest
	}
	if _, err := domain.ParseSearchKind(string(kind)); err != nil {
		return nil, err
	}

	cacheKey := searchCacheKey(kind, normalized)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	result, err := s.searchProviders(ctx, query, kind)
	if err != nil {
		return nil, err
	}

	if len(result.Hits) > 0 {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache search result", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return result, nil
}

func (s *SearchService) searchProviders(ctx context.Context, query string, kind domain.SearchKind) (*SearchResult, error) {
	if s.primary != nil {
		hits, err := s.primary.Search(ctx, query, kind)
		switch {
		case err == nil && (len(hits) > 0 || s.fallback == nil):
			return &SearchResult{Provider: s.primary.Name(), Hits: hits}, nil
		case err == nil:
			s.logger.Info("primary search found nothing, using fallback",
				zap.String("provider", s.primary.Name()),
				zap.String("query", query),
			)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			s.logger.Warn("primary search failed, using fallback",
				zap.String("provider", s.primary.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
		}
	}

	if s.fallback == nil {
		return nil, domain.ErrSearchAPIFailure
	}
	hits, err := s.fallback.Search(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	return &SearchResult{Provider: s.fallback.Name(), Hits: hits}, nil
}

func (s *SearchService) getFromCache(ctx context.Context, key string) (*SearchResult, bool) {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	result, ok := v.(*SearchResult)
	return result, ok
}

// searchCacheKey builds "search:{kind}:{normalized query}"
func searchCacheKey(kind domain.SearchKind, normalized string) string {
	return fmt.Sprintf("search:%s:%s", kind, normalized)
}

// FormatHits renders search hits as a context block for the model
func FormatHits(query string, kind domain.SearchKind, hits []domain.SearchHit) string {
	var b strings.Builder

	if kind == domain.SearchKindAvito {
		fmt.Fprintf(&b, "Результаты поиска б/у предложений на Avito по запросу \"%s\":\n", query)
	} else {
		fmt.Fprintf(&b, "Результаты поиска в интернет-магазинах по запросу \"%s\":\n", query)
	}

	if len(hits) == 0 {
		b.WriteString("Ничего не найдено.\n")
	}
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s", i+1, h.Title)
		if h.Source != "" {
			fmt.Fprintf(&b, " - %s", h.Source)
		}
		if h.Price != "" {
			fmt.Fprintf(&b, ": %s", h.Price)
		}
		if h.Snippet != "" {
			fmt.Fprintf(&b, " (%s)", h.Snippet)
		}
		if h.Link != "" {
			fmt.Fprintf(&b, " %s", h.Link)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nИспользуй эти данные и обязательно укажи минимальную цену в формате \"Минимальная цена: X ₽\".")
	return b.String()
}

// InjectSearchContext inserts block as a system message right after the
// leading system prompt, or at the front when there is none.
func InjectSearchContext(messages []domain.ChatMessage, block string) []domain.ChatMessage {
	msg := domain.ChatMessage{Role: domain.RoleSystem, Content: block}

	at := 0
	if len(messages) > 0 && messages[0].Role == domain.RoleSystem {
		at = 1
	}

	out := make([]domain.ChatMessage, 0, len(messages)+1)
	out = append(out, messages[:at]...)
	out = append(out, msg)
	out = append(out, messages[at:]...)
	return out
}
