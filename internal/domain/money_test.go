package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRub(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 ₽"},
		{990, "990 ₽"},
		{5990, "5 990 ₽"},
		{84990, "84 990 ₽"},
		{149990, "149 990 ₽"},
		{1234567, "1 234 567 ₽"},
		{-1500, "-1 500 ₽"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRub(tt.in))
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "iphone 15 pro", NormalizeQuery("  iPhone   15\tPro "))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, "ноутбук asus", NormalizeQuery("НОУТБУК Asus"))
}

func TestParseSearchKind(t *testing.T) {
	kind, err := ParseSearchKind("avito")
	assert.NoError(t, err)
	assert.Equal(t, SearchKindAvito, kind)
	assert.Equal(t, "competitorUsedPrice", kind.PriceField())

	_, err = ParseSearchKind("ebay")
	assert.ErrorIs(t, err, ErrInvalidSearchKind)
}
