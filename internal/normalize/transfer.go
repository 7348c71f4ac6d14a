package normalize

import (
	"fmt"
	"strings"
	"time"
)

type TransferType string

const (
	Permanent    TransferType = "Permanent"
	Loan         TransferType = "Loan"
	FreeTransfer TransferType = "FreeTransfer"
)

// ClassifyTransferType inspects the raw fee text. "Loan fee: €2m" is a loan,
// "free transfer" is free, anything else (including "-" and "?") is permanent.
func ClassifyTransferType(fee string) TransferType {
	s := strings.ToLower(fee)
	switch {
	case strings.Contains(s, "loan"):
		return Loan
	case strings.Contains(s, "free"):
		return FreeTransfer
	default:
		return Permanent
	}
}

// WindowLabel buckets a transfer date into a coarse market period. This is a
// calendar heuristic, not the per-league window configuration.
func WindowLabel(date time.Time) string {
	year := date.Year()
	switch m := date.Month(); {
	case m >= time.January && m <= time.February:
		return fmt.Sprintf("%d-winter", year)
	case m >= time.June && m <= time.September:
		return fmt.Sprintf("%d-summer", year)
	default:
		return fmt.Sprintf("%d-mid-season", year)
	}
}
