package storage

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"catatan/internal/core"

	"github.com/shopspring/decimal"
)

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected integer value %T", v)
	}
}

// asDecimal converts a numeric column. NULL, as produced by SUM over no rows, is zero.
func asDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	default:
		return decimal.Zero, fmt.Errorf("unexpected numeric value %T", v)
	}
}

// asDate converts a stored date, falling back to today for malformed values.
func asDate(v any) core.Date {
	switch t := v.(type) {
	case time.Time:
		return core.AsDate(t)
	case string:
		// Accept datetime text written by other tools; only the date part counts.
		if len(t) > len(core.DateLayout) {
			t = t[:len(core.DateLayout)]
		}
		return core.ParseDateOrToday(t)
	default:
		slog.Warn("Unexpected stored date, using today", "value", v)
		return core.Today()
	}
}
