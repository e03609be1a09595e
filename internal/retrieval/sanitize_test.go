package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsOperatorChars(t *testing.T) {
	got := Sanitize(`foo AND (bar OR "baz")`)
	assert.NotContains(t, got, "(")
	assert.NotContains(t, got, `"`)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		`plain query`,
		`weird ?*+-()^~"':./ chars`,
		"",
		"   ",
		"trailing-dash-",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "Sanitize should be idempotent for %q", in)
	}
}

func TestSanitize_AllOperatorsFallsBackToOriginal(t *testing.T) {
	raw := `?*+-()^~"':./`
	got := Sanitize(raw)
	assert.Equal(t, raw, got, "an entirely-operator query should be returned unchanged, not empty")
}

func TestSanitize_CollapsesWhitespace(t *testing.T) {
	got := Sanitize("foo   bar\tbaz")
	assert.Equal(t, "foo bar baz", got)
}
