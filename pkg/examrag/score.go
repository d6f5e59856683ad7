package examrag

import (
	"sort"
	"strconv"
	"time"
)

// ScoreChunks re-ranks chunks by layering heuristic boosts on top of raw
// similarity:
//
//   - recency: year within cfg.RecencyBoostYears of now
//   - section match: chunk section equals the non-empty target section
//   - paper match: chunk paper type equals the target format
//
// Boosts are multiplicative and composable, so relative ordering within a
// similarity band is preserved; the result is clamped to 1.0 so no chunk
// can claim over-unity relevance. Output is sorted by adjusted similarity
// descending with input order as the stable tie-break. The input is not
// mutated.
func ScoreChunks(chunks []Chunk, targetSection Section, targetFormat PaperFormat, cfg Config, now time.Time) []ScoredChunk {
	if len(chunks) == 0 {
		return []ScoredChunk{}
	}

	recencyCutoff := now.Year() - cfg.RecencyBoostYears

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		sc := ScoredChunk{Chunk: c, AdjustedSimilarity: c.Similarity}

		if year, err := strconv.Atoi(c.Year); err == nil && year >= recencyCutoff {
			sc.AdjustedSimilarity *= cfg.RecencyBoostFactor
			sc.RecencyBoost = true
		}

		if targetSection != "" && c.Section == targetSection {
			sc.AdjustedSimilarity *= cfg.SectionMatchBoost
			sc.SectionMatchBoost = true
		}

		if c.PaperType == targetFormat {
			sc.AdjustedSimilarity *= cfg.PaperMatchBoost
			sc.PaperMatchBoost = true
		}

		if sc.AdjustedSimilarity > 1.0 {
			sc.AdjustedSimilarity = 1.0
		}
		if sc.AdjustedSimilarity < 0 {
			sc.AdjustedSimilarity = 0
		}

		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].AdjustedSimilarity > scored[j].AdjustedSimilarity
	})

	return scored
}
