package analyze

import "strings"

// DefaultMaxChunkBytes mirrors the per-request size limit of synchronous
// NLP backends.
const DefaultMaxChunkBytes = 5000

// chunkText splits text into chunks of at most maxBytes, packing whole
// lines greedily in order. A single line that alone exceeds the limit is
// hard-truncated (at a rune boundary). Whitespace-only chunks are
// dropped.
func chunkText(text string, maxBytes int) []string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkBytes
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxBytes {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			chunks = append(chunks, current.String())
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) > maxBytes {
			line = truncateBytes(line, maxBytes)
		}

		needed := len(line)
		if current.Len() > 0 {
			needed++ // joining newline
		}

		if current.Len()+needed > maxBytes {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()

	return chunks
}

// truncateBytes cuts s to at most maxBytes without splitting a rune.
func truncateBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
