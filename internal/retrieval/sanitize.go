package retrieval

import "strings"

// operatorChars are the characters the keyword index's query grammar
// treats as operators. Each is replaced with a space.
const operatorChars = `?*+-()^~"':./`

// Sanitize strips the keyword grammar's operator characters from a raw
// query. If the result is empty after collapsing whitespace,
// the original string is returned unchanged so the caller can surface the
// resulting backend error.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if strings.ContainsRune(operatorChars, r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if collapsed == "" {
		return raw
	}
	return collapsed
}
