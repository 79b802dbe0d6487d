package embed

import "strings"

// defaultMaxInputTokens matches the smallest context window among the
// supported remote models.
const defaultMaxInputTokens = 2048

// tokensPerWord approximates English subword tokenization.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Clip shortens text to about maxTokens by dropping trailing words.
// Whitespace is normalized only when the text is clipped.
func Clip(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := max(int(float64(maxTokens)/tokensPerWord), 1)
	if keep >= len(words) {
		return text
	}
	return strings.Join(words[:keep], " ")
}
