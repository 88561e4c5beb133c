package domain

import (
	"strconv"
	"strings"
)

// FormatRub renders a whole-ruble amount with space-grouped thousands: 84990 -> "84 990 ₽"
func FormatRub(v int64) string {
	s := strconv.FormatInt(v, 10)
	sign := ""
	if v < 0 {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(' ')
		b.WriteString(s[i : i+3])
	}
	b.WriteString(" ₽")
	return b.String()
}
