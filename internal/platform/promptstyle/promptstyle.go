// Package promptstyle prefixes system prompts with house output rules.
package promptstyle

import "strings"

const marker = "STUDYBITS_PROMPT_STYLE_V1"

const preamble = "You are a careful assistant for Studybits, a study question platform.\n" +
	"Follow the system and user instructions precisely.\n" +
	"If an output format is specified, output only that format. Do not add commentary."

// modeRules holds the closing rule per output mode. Unknown modes use "text".
var modeRules = map[string]string{
	"text": "Be concise and structured when helpful.",
	"tags": "Return one line of comma-separated tags with no numbering, quotes or brackets.",
}

// ApplySystem prepends the style block to a system prompt. Blank prompts and prompts
// already carrying the block are returned trimmed and otherwise unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}
	rule, ok := modeRules[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		rule = modeRules["text"]
	}

	lines := []string{marker, preamble}
	if first, _, _ := strings.Cut(base, "\n"); strings.TrimSpace(first) != "" {
		lines = append(lines, "Task summary: "+strings.TrimSpace(first))
	}
	lines = append(lines, rule, "---", base)
	return strings.Join(lines, "\n")
}
