package consult

import "fmt"

// renderGuidance builds the templated synthesis string. The exact
// wording is a compatibility point that tests pin — do not reword.
func renderGuidance(decision string, principles, patterns []Bucketed) string {
	if len(principles) == 0 && len(patterns) == 0 {
		return fmt.Sprintf("No matching principles or patterns for: %q", decision)
	}

	out := fmt.Sprintf("Consulting the Oracle on: %q\n\n", decision)

	if len(principles) > 0 {
		out += "Relevant principles:\n"
		for i, p := range principles {
			out += fmt.Sprintf("%d. %s\n", i+1, snippet(p.Content, 150))
		}
		out += "\n"
	}

	if len(patterns) > 0 {
		out += "Relevant patterns:\n"
		for i, p := range patterns {
			out += fmt.Sprintf("%d. %s\n", i+1, snippet(p.Content, 150))
		}
		out += "\n"
	}

	out += closingAphorism
	return out
}

func snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n])
}
