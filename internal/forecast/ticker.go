package forecast

import (
	"regexp"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,15}$`)

// NormalizeTicker upper-cases raw and reports whether it is a plausible
// exchange symbol such as "AAPL", "BRK-B", "^GSPC" or "EURUSD=X".
func NormalizeTicker(raw string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	return t, tickerPattern.MatchString(t)
}
