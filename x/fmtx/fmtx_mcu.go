//go:build rp2040

package fmtx

import "strconv"

// Sprintf formats like fmt.Sprintf for the subset the firmware uses.
func Sprintf(format string, a ...any) string {
	return string(Appendf(nil, format, a...))
}

// Appendf appends the formatted text to b.
// Supports: %s %d %x %c %% with no flags or width; unknown verbs are written
// literally to aid debugging.
func Appendf(b []byte, format string, a ...any) []byte {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b = append(b, c)
			continue
		}
		i++
		verb := format[i]
		if verb == '%' {
			b = append(b, '%')
			continue
		}
		if ai >= len(a) {
			b = append(b, '%', verb)
			continue
		}
		arg := a[ai]
		ai++
		switch verb {
		case 's':
			switch v := arg.(type) {
			case string:
				b = append(b, v...)
			case []byte:
				b = append(b, v...)
			default:
				b = append(b, "<?>"...)
			}
		case 'd':
			b = strconv.AppendInt(b, toI64(arg), 10)
		case 'x':
			b = strconv.AppendUint(b, uint64(toI64(arg)), 16)
		case 'c':
			b = append(b, byte(toI64(arg)))
		default:
			b = append(b, '%', verb)
		}
	}
	return b
}

func toI64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	}
	return 0
}
