package submissions

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFormStripsScriptCharacters(t *testing.T) {
	form := SanitizeForm(map[string]any{
		"first_name": "<script>bob</script>",
		"company":    `Acme "Quotes" & Co'`,
	})

	assert.Equal(t, "scriptbob/script", form["first_name"])
	assert.Equal(t, "Acme Quotes & Co", form["company"])
}

func TestSanitizeFormTrimsAndCaps(t *testing.T) {
	form := SanitizeForm(map[string]any{
		"first_name": "  " + strings.Repeat("a", 80) + "  ",
		"email":      strings.Repeat("e", 300),
		"phone":      strings.Repeat("5", 40),
		"freeform":   strings.Repeat("x", 600),
	})

	assert.Len(t, form["first_name"], nameMaxLen)
	assert.Len(t, form["email"], emailMaxLen)
	assert.Len(t, form["phone"], phoneMaxLen)
	// Unknown fields use the default cap.
	assert.Len(t, form["freeform"], defaultMaxLen)
}

func TestSanitizeFormTruncatesOnRuneBoundary(t *testing.T) {
	// 49 ASCII bytes followed by a 2-byte rune: the 50-byte cut would land
	// mid-rune, so truncation backs up to the rune start.
	form := SanitizeForm(map[string]any{
		"first_name": strings.Repeat("a", 49) + "é",
	})

	got := form["first_name"].(string)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 49), got)

	nested := SanitizeValue(strings.Repeat("b", 999) + "é").(string)
	assert.True(t, utf8.ValidString(nested))
	assert.Equal(t, strings.Repeat("b", 999), nested)
}

func TestSanitizeFormIdempotent(t *testing.T) {
	input := map[string]any{
		"first_name": "<b>Jane</b>",
		"notes":      map[string]any{"raw": "<img src=x>"},
	}
	once := SanitizeForm(input)
	twice := SanitizeForm(map[string]any(once))
	assert.Equal(t, once, twice)
}

func TestSanitizeFormNestedValues(t *testing.T) {
	form := SanitizeForm(map[string]any{
		"meta": map[string]any{
			"tags": []any{"<evil>", "ok"},
			"long": strings.Repeat("z", 1200),
		},
		"monthly_revenue": float64(10000),
	})

	meta := form["meta"].(map[string]any)
	tags := meta["tags"].([]any)
	assert.Equal(t, "evil", tags[0])
	assert.Equal(t, "ok", tags[1])
	// Nested strings get the generic cap, not the per-field one.
	assert.Len(t, meta["long"], genericMaxLen)
	assert.Equal(t, float64(10000), form["monthly_revenue"])
}

func TestSanitizeValuePassesScalars(t *testing.T) {
	assert.Equal(t, float64(42), SanitizeValue(float64(42)))
	assert.Equal(t, true, SanitizeValue(true))
	assert.Nil(t, SanitizeValue(nil))
}
