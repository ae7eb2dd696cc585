package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Millisecond precision keeps consecutive candidate decodes distinguishable.
const consoleTimeLayout = "2006-01-02 15:04:05.000"

// hexKeys are rendered in hex so they line up with offsets printed by
// the plan command and hex dumps of the format string image.
var hexKeys = map[string]bool{
	FieldAnchorOffset: true,
}

func consoleTime(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Local().Format(consoleTimeLayout)
}

// plainValue renders v without quoting; used for the component prefix.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// fieldValue renders the value half of a key=value pair.
func fieldValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindUint64:
		if hexKeys[lastSegment(key)] {
			return fmt.Sprintf("0x%x", v.Uint64())
		}
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindInt64:
		if n := v.Int64(); n >= 0 && hexKeys[lastSegment(key)] {
			return fmt.Sprintf("0x%x", n)
		}
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return consoleTime(v.Time())
	default:
		return quoteIfNeeded(plainValue(v))
	}
}

func lastSegment(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			return key[i+1:]
		}
	}
	return key
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
