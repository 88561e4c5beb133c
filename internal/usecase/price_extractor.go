package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pricescout/backend/internal/domain"
)

// Plausibility band for extracted prices, both bounds exclusive.
// Anything outside is a page number, a phone fragment or similar noise.
const (
	MinPlausiblePrice int64 = 100
	MaxPlausiblePrice int64 = 10_000_000
)

// space is any whitespace a model may put between digit groups: ASCII
// whitespace, vertical tab and every Unicode space separator (no-break,
// thin, figure, narrow no-break).
const space = `[\s\p{Zs}\v]`

// priceNumber captures a digit run whose groups may be separated by space.
const priceNumber = `(\d+(?:` + space + `*\d+)*)`

// labelGap is what may sit between a label and its number ("Цена: 84 990").
const labelGap = `[:\s\p{Zs}\v]*`

// Each family captures one conventional way a price is written in an answer.
// All of them run independently; the minimum is taken over every hit.
var pricePatterns = []*regexp.Regexp{
	// "84 990 ₽", "92000 руб.", "1 250 000 рублей", "15000 rub"
	regexp.MustCompile(`(?i)` + priceNumber + space + `*(?:₽|руб|rub)`),
	// "Минимальная цена: 84 990", "минимальная б/у цена 41000", "minimum used price: 41000"
	regexp.MustCompile(`(?i)(?:минимальная` + space + `+(?:б/у` + space + `+)?цена|minimum` + space + `+(?:used` + space + `+)?price)` + labelGap + priceNumber),
	// "цена: 92000", "price 92000"
	regexp.MustCompile(`(?i)(?:цена|price)` + labelGap + priceNumber),
	// "стоимость: 92000", "cost 92000", "value: 92000"
	regexp.MustCompile(`(?i)(?:стоимость|cost|value)` + labelGap + priceNumber),
}

// ExtractMinPrice returns the smallest plausible price mentioned in text.
// ok is false when no candidate survives the plausibility band; callers must
// treat that as an inconclusive search, not as a failure.
func ExtractMinPrice(text string) (price int64, ok bool) {
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			candidate, valid := parsePriceDigits(match[1])
			if !valid || candidate <= MinPlausiblePrice || candidate >= MaxPlausiblePrice {
				continue
			}
			if !ok || candidate < price {
				price = candidate
				ok = true
			}
		}
	}
	return price, ok
}

// ExtractPrices returns every plausible price in text in scan order.
// The analyzer logs them at debug level next to the chosen minimum.
func ExtractPrices(text string) []int64 {
	var prices []int64
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			candidate, valid := parsePriceDigits(match[1])
			if valid && candidate > MinPlausiblePrice && candidate < MaxPlausiblePrice {
				prices = append(prices, candidate)
			}
		}
	}
	return prices
}

// parsePriceDigits drops group separators and parses the remaining digits.
// Runs too long for int64 are rejected rather than clamped.
func parsePriceDigits(s string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchProduct returns the first product whose name contains the query or is
// contained by it, ignoring case. The match is deliberately permissive:
// "iPhone" also matches a query for "iPhone 15 Pro Max".
func MatchProduct(products []domain.Product, name string) (*domain.Product, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil, false
	}
	for i := range products {
		stored := strings.ToLower(products[i].Name)
		if stored == "" {
			continue
		}
		if strings.Contains(stored, query) || strings.Contains(query, stored) {
			return &products[i], true
		}
	}
	return nil, false
}

// MatchProductStrict returns the first product whose name equals the query
// after case folding and whitespace collapsing.
func MatchProductStrict(products []domain.Product, name string) (*domain.Product, bool) {
	query := normalizeProductName(name)
	if query == "" {
		return nil, false
	}
	for i := range products {
		if normalizeProductName(products[i].Name) == query {
			return &products[i], true
		}
	}
	return nil, false
}

func normalizeProductName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
