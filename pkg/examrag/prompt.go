package examrag

import (
	"context"
	"strings"
)

// EnhancePrompt retrieves relevant past paper context and appends it to
// basePrompt as a reference block. When no context is available, whether the
// index is sparse or a collaborator failed, the base prompt is returned
// unchanged so generation always proceeds.
func (r *Retriever) EnhancePrompt(ctx context.Context, basePrompt string, p RetrieveParams) string {
	scored := r.RetrieveScored(ctx, p)
	if len(scored) == 0 {
		r.log.Debug().Msg("no retrieval context available, using base prompt only")
		return basePrompt
	}

	block := FormatContext(scored, r.cfg)
	if block == "" {
		return basePrompt
	}

	years := make([]string, 0, len(scored))
	sections := make([]string, 0, len(scored))
	for _, c := range scored {
		years = append(years, c.Year)
		sections = append(sections, string(c.Section))
	}
	r.log.Info().
		Int("chunks", len(scored)).
		Str("years", strings.Join(years, ",")).
		Str("sections", strings.Join(sections, ",")).
		Msg("enhanced prompt with retrieval context")

	return basePrompt + "\n\n" + block
}
