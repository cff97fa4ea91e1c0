package core

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// groupedThousands matches Indonesian notation: dots between groups of three
// digits, optionally followed by a comma and decimals.
var groupedThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)

// ParseAmount converts user text into a positive decimal. Plain numbers take a
// dot or a comma as the decimal separator. Text written the way FormatRupiah
// prints it, with dots grouping thousands, is read as Indonesian notation.
// Anything else, including several separators in another layout, is not a
// number.
//
// Examples:
//
//	ParseAmount("25000")       -> 25000
//	ParseAmount("12,5")        -> 12.5
//	ParseAmount("1.5")         -> 1.5
//	ParseAmount("25.000")      -> 25000
//	ParseAmount("1.500.000,5") -> 1500000.5
//	ParseAmount("1.500,000.5") -> 0 (warning logged)
//	ParseAmount("-3")          -> 0 (warning logged)
//	ParseAmount("abc")         -> 0 (warning logged)
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		slog.Warn("Empty amount")
		return decimal.Zero
	}
	if groupedThousands.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		slog.Warn("Amount is not a number", "value", s)
		return decimal.Zero
	}
	if !d.IsPositive() {
		slog.Warn("Amount must be positive", "value", s)
		return decimal.Zero
	}
	return d
}

// FormatRupiah renders an amount as Indonesian currency without decimals, e.g. "Rp 25.000".
func FormatRupiah(amount decimal.Decimal) string {
	return "Rp " + humanize.FormatFloat("#.###,", amount.InexactFloat64())
}

// FormatDuration renders minutes as "H jam M menit", dropping zero parts.
func FormatDuration(minutes decimal.Decimal) string {
	if !minutes.IsPositive() {
		return "0 menit"
	}
	total := minutes.IntPart()
	hours, rest := total/60, total%60

	var parts []string
	if hours > 0 {
		parts = append(parts, humanize.Comma(hours)+" jam")
	}
	if rest > 0 {
		parts = append(parts, humanize.Comma(rest)+" menit")
	}
	if len(parts) == 0 {
		return "0 menit"
	}
	return strings.Join(parts, " ")
}
