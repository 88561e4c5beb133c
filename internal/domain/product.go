package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a tracked item. Competitor prices of zero mean "unknown".
type Product struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name" validate:"required,max=200"`
	Description         string          `json:"description" validate:"max=2000"`
	Quantity            int             `json:"quantity" validate:"gte=0"`
	PurchasePrice       decimal.Decimal `json:"purchasePrice" validate:"min=0"`
	SalePrice           decimal.Decimal `json:"salePrice" validate:"min=0"`
	CompetitorNewPrice  decimal.Decimal `json:"competitorNewPrice" validate:"min=0"`
	CompetitorUsedPrice decimal.Decimal `json:"competitorUsedPrice" validate:"min=0"`
	LastUpdated         time.Time       `json:"lastUpdated"`
}

// SearchKind selects where competitor prices are looked up
type SearchKind string

const (
	SearchKindCompetitor SearchKind = "competitor" // new items at online retailers
	SearchKindAvito      SearchKind = "avito"      // used items on Avito
)

// ParseSearchKind validates a search kind coming from a request
func ParseSearchKind(s string) (SearchKind, error) {
	switch SearchKind(s) {
	case SearchKindCompetitor, SearchKindAvito:
		return SearchKind(s), nil
	}
	return "", ErrInvalidSearchKind
}

// PriceField is the Product field that a search of this kind writes to
func (k SearchKind) PriceField() string {
	if k == SearchKindAvito {
		return "competitorUsedPrice"
	}
	return "competitorNewPrice"
}

// SetCompetitorPrice writes price into the field owned by kind and stamps the product
func (p *Product) SetCompetitorPrice(kind SearchKind, price int64, now time.Time) {
	switch kind {
	case SearchKindAvito:
		p.CompetitorUsedPrice = decimal.NewFromInt(price)
	default:
		p.CompetitorNewPrice = decimal.NewFromInt(price)
	}
	p.LastUpdated = now
}

// DefaultHistoryLimit caps the search history when no limit is configured
const DefaultHistoryLimit = 100

// SearchRecord is one entry of the search history
type SearchRecord struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Type        SearchKind `json:"type"`
	ProductName string     `json:"productName"`
	Result      string     `json:"result"`
	MinPrice    int64      `json:"minPrice"` // 0 when no price was extracted
}

// SearchHit is a single web search result used to ground the LLM answer
type SearchHit struct {
	Title          string  `json:"title"`
	Source         string  `json:"source,omitempty"`
	Price          string  `json:"price,omitempty"`
	ExtractedPrice float64 `json:"extractedPrice,omitempty"`
	Link           string  `json:"link,omitempty"`
	Snippet        string  `json:"snippet,omitempty"`
	Synthetic      bool    `json:"synthetic,omitempty"`
}

// NormalizeQuery lower-cases a search query and collapses its whitespace
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
