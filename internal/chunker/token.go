package chunker

import "strings"

// EstimateTokens gives a rough token count for a segment using the
// ~1.33 tokens/word heuristic. Exact tokenization is not required; this is
// only used to budget text sent to remote APIs.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
