package spellcheck

// ApplyCorrections replaces each flagged word with its first suggestion, or
// leaves it as is when there are none. Errors within an element are applied
// from last to first so earlier positions stay valid. Positions count runes.
func ApplyCorrections(text string, elements []Element) string {
	out := []rune(text)
	for _, el := range elements {
		for i := len(el.Errors) - 1; i >= 0; i-- {
			m := el.Errors[i]
			replacement := m.Word
			if len(m.Suggestions) > 0 {
				replacement = m.Suggestions[0]
			}

			start := clamp(m.Position, 0, len(out))
			end := clamp(m.Position+len([]rune(m.Word)), start, len(out))

			next := make([]rune, 0, len(out)-(end-start)+len(replacement))
			next = append(next, out[:start]...)
			next = append(next, []rune(replacement)...)
			next = append(next, out[end:]...)
			out = next
		}
	}
	return string(out)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
