package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/pricescout/backend/internal/domain"
)

const (
	minBasePrice = 5_000
	maxBasePrice = 150_000

	defaultMaxResults = 5
)

var retailers = []string{"М.Видео", "DNS", "Ozon", "Яндекс Маркет", "Ситилинк", "Wildberries", "Эльдорадо"}

var cities = []string{"Москва", "Санкт-Петербург", "Казань", "Новосибирск", "Екатеринбург", "Краснодар"}

var conditions = []string{"отличное состояние", "хорошее состояние", "полный комплект", "есть следы использования"}

// Provider produces deterministic offers without network access. It stands
// in for a real search API when no key is configured.
type Provider struct {
	maxResults int
}

var _ domain.SearchProvider = (*Provider)(nil)

// NewProvider creates a synthetic provider returning up to maxResults offers
func NewProvider(maxResults int) *Provider {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Provider{maxResults: maxResults}
}

// Name identifies the provider in response metadata
func (p *Provider) Name() string {
	return "synthetic"
}

// Search returns the same offers for the same normalised query
func (p *Provider) Search(ctx context.Context, query string, kind domain.SearchKind) ([]domain.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeQuery(query)
	if normalized == "" {
		return nil, nil
	}

	seed := seedFor(normalized)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	base := basePrice(rng)

	switch kind {
	case domain.SearchKindCompetitor:
		return p.retailOffers(rng, query, base), nil
	case domain.SearchKindAvito:
		return p.usedOffers(rng, query, base), nil
	}
	return nil, domain.ErrInvalidSearchKind
}

func (p *Provider) retailOffers(rng *rand.Rand, query string, base int64) []domain.SearchHit {
	n := min(p.maxResults, len(retailers))
	order := rng.Perm(len(retailers))

	hits := make([]domain.SearchHit, 0, n)
	for i := 0; i < n; i++ {
		price := roundPrice(float64(base) * (0.90 + rng.Float64()*0.25))
		shop := retailers[order[i]]
		hits = append(hits, domain.SearchHit{
			Title:          query,
			Source:         shop,
			Price:          domain.FormatRub(price),
			ExtractedPrice: float64(price),
			Synthetic:      true,
		})
	}
	return hits
}

func (p *Provider) usedOffers(rng *rand.Rand, query string, base int64) []domain.SearchHit {
	n := p.maxResults

	hits := make([]domain.SearchHit, 0, n)
	for i := 0; i < n; i++ {
		price := roundPrice(float64(base) * (0.55 + rng.Float64()*0.25))
		city := cities[rng.IntN(len(cities))]
		condition := conditions[rng.IntN(len(conditions))]
		hits = append(hits, domain.SearchHit{
			Title:          fmt.Sprintf("%s б/у", query),
			Source:         "Avito",
			Price:          domain.FormatRub(price),
			ExtractedPrice: float64(price),
			Snippet:        fmt.Sprintf("%s, %s", city, condition),
			Synthetic:      true,
		})
	}
	return hits
}

// seedFor hashes a normalised query with FNV-1a
func seedFor(normalized string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum64()
}

// basePrice picks a price in [5 000, 150 000) ending in 990
func basePrice(rng *rand.Rand) int64 {
	v := minBasePrice + rng.Int64N(maxBasePrice-minBasePrice)
	v = v/1000*1000 + 990
	if v >= maxBasePrice {
		v -= 1000
	}
	return v
}

// roundPrice rounds to a shelf price ending in 90
func roundPrice(v float64) int64 {
	return int64(v)/100*100 + 90
}
