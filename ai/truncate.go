package ai

// Truncate bounds text to at most maxRunes runes. Truncation happens on
// rune boundaries so multi-byte characters are never split.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == maxRunes {
			return text[:i]
		}
		count++
	}
	return text
}
