package ai

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "o200k_base"

// CountTokens returns the token count of text under the o200k_base
// encoding. Used for budgeting evidence context before synthesis.
func CountTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// FitLines appends lines to a context block until the token budget is
// exhausted and reports how many lines were included. Lines are never
// split; a line that would overflow the budget ends the block.
func FitLines(lines []string, budget int) (string, int, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	used := 0
	included := 0
	for _, line := range lines {
		cost := len(enc.Encode(line, nil, nil)) + 1
		if used+cost > budget && included > 0 {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
		used += cost
		included++
	}
	return b.String(), included, nil
}
