package submissions

import (
	"strings"
	"unicode/utf8"
)

// Maximum string lengths applied during sanitization. Form fields get tighter
// caps than arbitrary nested payload strings.
const (
	genericMaxLen = 1000
	defaultMaxLen = 500
	nameMaxLen    = 50
	emailMaxLen   = 255
	companyMaxLen = 200
	phoneMaxLen   = 20
)

var fieldMaxLens = map[string]int{
	"first_name": nameMaxLen,
	"last_name":  nameMaxLen,
	"email":      emailMaxLen,
	"company":    companyMaxLen,
	"website":    companyMaxLen,
	"phone":      phoneMaxLen,
}

// stripUnsafe removes the characters used in script injection and attribute
// breakout attacks.
func stripUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, s)
}

// truncate caps s at max bytes without splitting a multibyte rune: the cut
// point walks back to the nearest rune start.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// SanitizeValue recursively sanitizes an arbitrary decoded JSON value:
// every string leaf has unsafe characters stripped and is capped at 1000
// characters. Maps and slices keep their shape; other scalars pass through.
// Recursion depth equals input depth, so the walk always terminates.
func SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return truncate(stripUnsafe(val), genericMaxLen)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = SanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = SanitizeValue(inner)
		}
		return out
	default:
		return v
	}
}

// SanitizeForm sanitizes a top-level form payload. String fields are
// stripped, trimmed, and truncated to a per-field limit; nested values fall
// back to the generic recursive sanitizer.
func SanitizeForm(form map[string]any) Form {
	out := make(Form, len(form))
	for key, v := range form {
		s, isStr := v.(string)
		if !isStr {
			out[key] = SanitizeValue(v)
			continue
		}
		s = strings.TrimSpace(stripUnsafe(s))
		max, ok := fieldMaxLens[key]
		if !ok {
			max = defaultMaxLen
		}
		out[key] = truncate(s, max)
	}
	return out
}
