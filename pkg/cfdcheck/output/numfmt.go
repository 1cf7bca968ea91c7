package output

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Verdict marks.
const (
	MarkSufficient   = "[✓]"
	MarkInsufficient = "[✗]"
)

// FormatValue renders a quantity with about three significant digits: one
// integer digit gets two decimals, three or more get none. Zero is "0".
// The integer part carries thousands separators.
func FormatValue(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	abs := math.Abs(v)
	digits := len(strconv.FormatFloat(math.Trunc(abs), 'f', 0, 64))
	decimals := max(3-digits, 0)

	whole, frac, _ := strings.Cut(strconv.FormatFloat(abs, 'f', decimals, 64), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}

	out := humanize.Comma(n)
	if frac != "" {
		out += "." + frac
	}
	if v < 0 {
		out = "-" + out
	}
	return out
}

// FormatPercent renders a ratio as a whole percentage, e.g. 0.2 as "20 %".
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(math.RoundToEven(ratio*100), 'f', 0, 64) + " %"
}

// Mark returns the verdict mark for a result.
func Mark(sufficient bool) string {
	if sufficient {
		return MarkSufficient
	}
	return MarkInsufficient
}
