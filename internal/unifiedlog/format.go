package unifiedlog

import (
	"fmt"
	"math"
	"strings"

	"batterylog/internal/tracev3"
)

const privateValue = "<private>"

// Render expands a printf style format string with the record's items.
// Annotations such as %{public}s are honored, private values render as
// <private>, and conversions without a matching item are kept verbatim.
func Render(format string, items []tracev3.Item) string {
	var b strings.Builder
	next := 0
	take := func() (tracev3.Item, bool) {
		for next < len(items) {
			it := items[next]
			next++
			if !it.IsPrecision() {
				return it, true
			}
		}
		return tracev3.Item{}, false
	}
	precision := func() (int, bool) {
		if next < len(items) && items[next].IsPrecision() {
			it := items[next]
			next++
			return int(it.Int()), true
		}
		return 0, false
	}

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			b.WriteByte(ch)
			continue
		}
		spec, ok := parseSpec(format[i:])
		if !ok {
			b.WriteString(format[i:])
			break
		}
		i += spec.length - 1
		if spec.verb == '%' {
			b.WriteByte('%')
			continue
		}
		if spec.starWidth {
			if w, ok := precision(); ok {
				spec.width = fmt.Sprint(w)
			}
		}
		if spec.starPrecision {
			if p, ok := precision(); ok {
				spec.precision = "." + fmt.Sprint(p)
			}
		}
		it, ok := take()
		if !ok {
			b.WriteString(spec.raw)
			continue
		}
		b.WriteString(spec.render(it))
	}
	return b.String()
}

type formatSpec struct {
	raw           string
	length        int
	annotation    string
	flags         string
	width         string
	precision     string
	starWidth     bool
	starPrecision bool
	verb          byte
}

// parseSpec reads one conversion starting at s[0] == '%'.
func parseSpec(s string) (formatSpec, bool) {
	spec := formatSpec{}
	i := 1
	if i < len(s) && s[i] == '%' {
		spec.verb = '%'
		spec.length = 2
		spec.raw = "%%"
		return spec, true
	}
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return spec, false
		}
		spec.annotation = s[i+1 : i+end]
		i += end + 1
	}
	for i < len(s) && strings.IndexByte("-+ #0'", s[i]) >= 0 {
		if s[i] != '\'' {
			spec.flags += string(s[i])
		}
		i++
	}
	if i < len(s) && s[i] == '*' {
		spec.starWidth = true
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	spec.width = s[start:i]
	if i < len(s) && s[i] == '.' {
		i++
		if i < len(s) && s[i] == '*' {
			spec.starPrecision = true
			i++
		} else {
			start = i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			spec.precision = "." + s[start:i]
		}
	}
	for i < len(s) && strings.IndexByte("hlqzjtL", s[i]) >= 0 {
		i++
	}
	if i >= len(s) {
		return spec, false
	}
	spec.verb = s[i]
	if strings.IndexByte("diouxXcsSCp@eEfFgGaA", spec.verb) < 0 {
		return spec, false
	}
	spec.length = i + 1
	spec.raw = s[:i+1]
	return spec, true
}

func (spec formatSpec) private() bool {
	for _, part := range strings.Split(spec.annotation, ",") {
		if strings.TrimSpace(part) == "private" {
			return true
		}
	}
	return false
}

func (spec formatSpec) render(it tracev3.Item) string {
	if it.Private || (spec.private() && it.Value == nil) {
		return privateValue
	}
	prefix := "%" + spec.flags + spec.width + spec.precision

	if it.IsString() {
		switch spec.verb {
		case 's', 'S', '@':
			return fmt.Sprintf(prefix+"s", string(it.Value))
		}
		return string(it.Value)
	}

	switch spec.verb {
	case 'd', 'i':
		return fmt.Sprintf(prefix+"d", it.Int())
	case 'u':
		return fmt.Sprintf(prefix+"d", it.Uint())
	case 'o', 'x', 'X':
		return fmt.Sprintf(prefix+string(spec.verb), it.Uint())
	case 'c', 'C':
		return fmt.Sprintf(prefix+"c", rune(it.Uint()))
	case 'p':
		return fmt.Sprintf("0x%x", it.Uint())
	case 'e', 'E', 'f', 'F', 'g', 'G':
		return fmt.Sprintf(prefix+string(spec.verb), itemFloat(it))
	case 'a', 'A':
		return fmt.Sprintf("%"+spec.flags+"x", itemFloat(it))
	}
	return fmt.Sprintf(prefix+"d", it.Int())
}

func itemFloat(it tracev3.Item) float64 {
	if len(it.Value) == 4 {
		return float64(math.Float32frombits(uint32(it.Uint())))
	}
	return math.Float64frombits(it.Uint())
}
