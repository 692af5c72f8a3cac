package bot

import (
	"strings"
	"unicode/utf16"
)

const (
	// maxMessageLen is Telegram's text limit, counted in UTF-16 code units.
	maxMessageLen = 4096
	// maxListDetails caps how much of one task is shown inside a list line.
	maxListDetails = 512
)

// splitMessage breaks HTML text into chunks that fit into one message.
// Cuts happen at line boundaries so tags opened on a line stay closed in the same chunk.
func splitMessage(text string, limit int) []string {
	if textLen(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if chunk := strings.TrimSpace(cur.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := textLen(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			head, rest := cutUnits(line, limit)
			chunks = append(chunks, head)
			line = rest
			n = textLen(line)
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}

func textLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// cutUnits splits s after at most limit UTF-16 units without breaking a rune.
func cutUnits(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if n+l > limit {
			return s[:i], s[i:]
		}
		n += l
	}
	return s, ""
}
