package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Money is a parsed fee or market value.
type Money struct {
	Display string
	Minor   *int64 // cents; nil when undisclosed
}

// Currency symbol or code, amount, optional magnitude suffix.
// Matches "€45m", "£1.5bn", "$ 300k", "EUR 12m".
var moneyPattern = regexp.MustCompile(`(?i)(?:[€£$]|\b(?:eur|gbp|usd)\b)\s*(\d+(?:\.\d+)?)\s*(bn|m|k|th\.?)?`)

// ParseMoney scans primary, then fallback, for a currency amount. The display
// string is the whitespace-normalized text of whichever field matched.
func ParseMoney(primary, fallback string) Money {
	for _, field := range []string{primary, fallback} {
		if minor, ok := parseAmount(field); ok {
			return Money{Display: CollapseSpace(field), Minor: &minor}
		}
	}
	return Money{Display: Undisclosed}
}

func parseAmount(raw string) (int64, bool) {
	s := strings.ReplaceAll(raw, ",", "")
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSuffix(m[2], ".")) {
	case "bn":
		amount *= 1_000_000_000
	case "m":
		amount *= 1_000_000
	case "k", "th":
		amount *= 1_000
	}
	return int64(math.Round(amount * 100)), true
}
