package ingest

import (
	"regexp"
	"strings"
)

// Chunking defaults. Sizes are in runes so multi-byte text never splits
// mid-character.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// Chunks at or below this length carry too little signal to embed.
	minChunkLen = 50
)

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// ChunkText splits text into overlapping chunks. Paragraphs are packed
// whole; a paragraph longer than chunkSize is split at sentence boundaries.
// Each new chunk starts with the tail of the previous one so context is not
// lost at the seam.
func ChunkText(text string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		joined := strings.Join(current, " ")
		chunks = append(chunks, joined)

		overlap := tailRunes(joined, chunkOverlap)
		if overlap != "" {
			current = []string{overlap}
			currentLen = len([]rune(overlap))
		} else {
			current = nil
			currentLen = 0
		}
	}

	appendPiece := func(piece string) {
		pieceLen := len([]rune(piece))
		if currentLen+pieceLen > chunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, piece)
		currentLen += pieceLen + 1
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len([]rune(para)) > chunkSize {
			for _, sentence := range splitSentences(para) {
				appendPiece(sentence)
			}
		} else {
			appendPiece(para)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	out := chunks[:0]
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if len([]rune(c)) > minChunkLen {
			out = append(out, c)
		}
	}
	return out
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		// Skip the whitespace run before the next sentence.
		j := i + 1
		for j < len(runes) && isSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
