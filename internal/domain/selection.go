package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeSelection trims raw selected text, recovers flattened line breaks
// and caps the result at MaxSelectionLength characters. Blank input yields nil.
func NormalizeSelection(raw string) *string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	text = RecoverLineBreaks(text)
	text = TruncateRunes(text, MaxSelectionLength)
	return &text
}

// RecoverLineBreaks re-inserts paragraph breaks into long single-line text.
// Some accessibility sources flatten paragraphs, so a break is placed after
// sentence-terminal punctuation. Text that already contains a newline, or is
// not longer than LineBreakRecoveryThreshold characters, is returned as is.
func RecoverLineBreaks(text string) string {
	if strings.Contains(text, "\n") || utf8.RuneCountInString(text) <= LineBreakRecoveryThreshold {
		return text
	}

	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 16)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)

		if !isCJKTerminator(r) && !isLatinTerminator(r) {
			continue
		}

		// closing quotes and brackets stay attached to the sentence
		j := i + 1
		for j < len(runes) && isClosingMark(runes[j]) {
			j++
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k >= len(runes) {
			continue
		}

		if isLatinTerminator(r) {
			// "e.g. foo" and "3.14" stay on one line
			if k == j || unicode.IsLower(runes[k]) {
				continue
			}
		}

		b.WriteString(string(runes[i+1 : j]))
		b.WriteByte('\n')
		i = k - 1
	}
	return b.String()
}

// TruncateRunes caps s at limit characters without splitting a rune.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func isCJKTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '；':
		return true
	}
	return false
}

func isLatinTerminator(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}

func isClosingMark(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '）', '》':
		return true
	}
	return false
}
