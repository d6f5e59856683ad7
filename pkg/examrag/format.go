package examrag

import (
	"fmt"
	"strings"
	"unicode"
)

// FormatContext renders scored chunks as a markdown reference block suitable
// for appending to a generation prompt. Each chunk gets a numbered header
// with its year, paper type and section, a relevance percentage annotated
// with the boosts that applied, and its content truncated at a sentence
// boundary when it exceeds cfg.MaxChunkChars. Returns "" when there are no
// chunks to format.
func FormatContext(chunks []ScoredChunk, cfg Config) string {
	if len(chunks) == 0 {
		return ""
	}

	lines := []string{
		"## Reference Examples from Past Papers",
		"Use the following excerpts as reference for tone, structure, and style.",
		"Do NOT copy content directly; use them as guidance only.",
		"These are ranked by relevance to your current task.",
		"",
	}

	for i, chunk := range chunks {
		header := fmt.Sprintf("### Reference %d", i+1)
		var meta []string
		if chunk.Year != "" && chunk.Year != "Unknown" {
			meta = append(meta, chunk.Year)
		}
		if chunk.PaperType != "" {
			meta = append(meta, titleCase(string(chunk.PaperType)))
		}
		if chunk.Section != "" {
			meta = append(meta, titleCase(string(chunk.Section)))
		}
		if len(meta) > 0 {
			header += " (" + strings.Join(meta, ", ") + ")"
		}
		lines = append(lines, header)

		sim := chunk.AdjustedSimilarity
		if sim == 0 {
			sim = chunk.Similarity
		}
		relevance := fmt.Sprintf("Relevance: %.0f%%", sim*100)
		var boosts []string
		if chunk.RecencyBoost {
			boosts = append(boosts, "recent")
		}
		if chunk.SectionMatchBoost {
			boosts = append(boosts, "section match")
		}
		if chunk.PaperMatchBoost {
			boosts = append(boosts, "paper match")
		}
		if len(boosts) > 0 {
			relevance += " (" + strings.Join(boosts, ", ") + ")"
		}
		lines = append(lines, relevance, "")

		lines = append(lines, truncateAtSentence(chunk.Content, cfg.MaxChunkChars), "", "---", "")
	}

	return strings.Join(lines, "\n")
}

// truncateAtSentence cuts content to at most maxChars runes, preferring to
// end at a full stop when one falls in the final 30% of the budget. Content
// within budget passes through unchanged; anything cut gets an ellipsis.
func truncateAtSentence(content string, maxChars int) string {
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}

	cut := runes[:maxChars]
	lastPeriod := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == '.' {
			lastPeriod = i
			break
		}
	}
	if float64(lastPeriod) > float64(maxChars)*0.7 {
		cut = cut[:lastPeriod+1]
	}
	return string(cut) + "..."
}

// titleCase turns snake_case metadata values like "paper_1" or
// "reading_aloud" into display form ("Paper 1", "Reading Aloud").
func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
