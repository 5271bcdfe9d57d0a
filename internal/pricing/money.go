package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadAmount = errors.New("malformed money amount")

// ParseCents converts a display amount like "205.99", "$250", or "250.5"
// into integer cents. Negative amounts are rejected; money entering the
// system is always a price or a tender, never a debit.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, ErrBadAmount
	}
	// ParseInt accepts "-0", which would slip sub-dollar negatives through
	// the sign check below.
	if strings.HasPrefix(s, "-") {
		return 0, ErrBadAmount
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, ErrBadAmount
	}
	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, ErrBadAmount
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, ErrBadAmount
		}
	}
	return dollars*100 + cents, nil
}

// FormatCents renders integer cents for display: 20599 -> "205.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
