package exchanges

import (
	"regexp"
	"strings"

	"github.com/aristath/folio/internal/domain"
)

// symbolPattern accepts BASE or BASE.SUFFIX in canonical upper case
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,19}(\.[A-Z0-9]{1,6})?$`)

// NormalizeSymbol trims and upper-cases symbol and rejects malformed input
// with an error wrapping domain.ErrValidation.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", domain.NewValidationError("symbol is required")
	}
	if !symbolPattern.MatchString(s) {
		return "", domain.NewValidationError("malformed symbol %q, expected SYMBOL or SYMBOL.EXCHANGE", symbol)
	}
	return s, nil
}

// SplitSuffix splits SYMBOL.EXCHANGE at the last dot. ok is false when the
// symbol carries no exchange suffix.
func SplitSuffix(symbol string) (base, suffix string, ok bool) {
	i := strings.LastIndex(symbol, ".")
	if i <= 0 || i == len(symbol)-1 {
		return symbol, "", false
	}
	return symbol[:i], symbol[i+1:], true
}

// IsForeign reports whether symbol is listed on an exchange outside the
// quote provider's coverage, by the SYMBOL.EXCHANGE convention.
func IsForeign(symbol string) bool {
	_, _, ok := SplitSuffix(symbol)
	return ok
}
