package serpapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

const (
	defaultBaseURL    = "https://serpapi.com"
	defaultMaxResults = 8

	avitoSite = "site:avito.ru"
)

// Config tunes the SerpAPI client
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
}

// Client searches Google Shopping and Google web results through SerpAPI
type Client struct {
	http       *resty.Client
	apiKey     string
	maxResults int
	logger     *zap.Logger
}

var _ domain.SearchProvider = (*Client)(nil)

type shoppingResult struct {
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Source         string  `json:"source"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type searchResponse struct {
	Error           string           `json:"error"`
	ShoppingResults []shoppingResult `json:"shopping_results"`
	OrganicResults  []organicResult  `json:"organic_results"`
}

// NewClient creates a SerpAPI client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		logger:     logger.Named("serpapi"),
	}
}

// Name identifies the provider in response metadata
func (c *Client) Name() string {
	return "serpapi"
}

// Search runs a shopping search for new items or a web search restricted to
// Avito for used ones.
func (c *Client) Search(ctx context.Context, query string, kind domain.SearchKind) ([]domain.SearchHit, error) {
	params := map[string]string{
		"api_key": c.apiKey,
		"gl":      "ru",
		"hl":      "ru",
		"num":     strconv.Itoa(c.maxResults),
	}
	switch kind {
	case domain.SearchKindCompetitor:
		params["engine"] = "google_shopping"
		params["q"] = query
	case domain.SearchKindAvito:
		params["engine"] = "google"
		params["q"] = fmt.Sprintf("%s %s б/у", avitoSite, query)
	default:
		return nil, domain.ErrInvalidSearchKind
	}

	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&out).
		Get("/search.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrSearchAPIFailure, resp.StatusCode(), out.Error)
	}
	if out.Error != "" {
		// SerpAPI reports "no results" as an error string with status 200
		c.logger.Debug("search returned error message", zap.String("query", query), zap.String("error", out.Error))
		return nil, nil
	}

	var hits []domain.SearchHit
	if kind == domain.SearchKindCompetitor {
		hits = mapShopping(out.ShoppingResults)
	} else {
		hits = mapOrganic(out.OrganicResults)
	}
	if len(hits) > c.maxResults {
		hits = hits[:c.maxResults]
	}

	c.logger.Info("search completed",
		zap.String("kind", string(kind)),
		zap.String("query", query),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

func mapShopping(results []shoppingResult) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		link := r.Link
		if link == "" {
			link = r.ProductLink
		}
		hits = append(hits, domain.SearchHit{
			Title:          r.Title,
			Source:         r.Source,
			Price:          r.Price,
			ExtractedPrice: r.ExtractedPrice,
			Link:           link,
		})
	}
	return hits
}

func mapOrganic(results []organicResult) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		source := r.Source
		if source == "" {
			source = "Avito"
		}
		hits = append(hits, domain.SearchHit{
			Title:   r.Title,
			Source:  source,
			Link:    r.Link,
			Snippet: r.Snippet,
		})
	}
	return hits
}
