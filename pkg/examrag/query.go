package examrag

import "strings"

// BuildQuery composes a keyword-dense natural-language query for embedding
// similarity from generation parameters.
//
// Plain enum values embed poorly; the vocabulary below mirrors the phrasing
// that actually appears in past papers, which is what drives retrieval
// quality. Unknown (format, section) pairs degrade to a format-generic
// phrase, and an unknown format to a fully generic one, never an error.
// The result is deterministic for fixed inputs.
func BuildQuery(format PaperFormat, section Section, topics []string, difficulty Difficulty) string {
	parts := make([]string, 0, 4)

	switch format {
	case Paper1:
		parts = append(parts, "GCE O-Level English Paper 1 Writing examination")
		switch section {
		case SectionA:
			parts = append(parts, "Section A Editing grammatical errors passage proofreading spelling punctuation verb tense")
		case SectionB:
			parts = append(parts, "Section B Situational Writing formal email letter report speech proposal audience purpose register")
		case SectionC:
			parts = append(parts, "Section C Continuous Writing composition essay narrative descriptive argumentative expository reflective")
		default:
			parts = append(parts, "Writing skills grammar situational continuous")
		}
	case Paper2:
		parts = append(parts, "GCE O-Level English Paper 2 Comprehension reading")
		switch section {
		case SectionA:
			parts = append(parts, "Section A Visual Text comprehension advertisement poster infographic inference persuasive technique")
		case SectionB:
			parts = append(parts, "Section B Reading Comprehension passage questions inference vocabulary writer's craft language effect")
		case SectionC:
			parts = append(parts, "Section C Summary guided comprehension paraphrasing key points own words")
		default:
			parts = append(parts, "Comprehension inference summary vocabulary analysis")
		}
	case Oral:
		parts = append(parts, "GCE O-Level English Oral Communication spoken")
		switch section {
		case ReadingAloud:
			parts = append(parts, "Reading Aloud passage pronunciation fluency expression articulation")
		case SBC:
			parts = append(parts, "Stimulus-Based Conversation discussion visual prompt opinion analysis")
		case Conversation:
			parts = append(parts, "General Conversation themes topics personal experience opinion")
		default:
			parts = append(parts, "Speaking oral reading conversation discussion")
		}
	default:
		parts = append(parts, "GCE O-Level English examination past paper content")
	}

	if len(topics) > 0 {
		parts = append(parts, "Focus topics: "+strings.Join(topics, ", "))
	}

	clause := "Difficulty: " + string(difficulty)
	if desc := difficultyDescriptor(difficulty); desc != "" {
		clause += " " + desc
	}
	parts = append(parts, clause)

	return strings.Join(parts, " ")
}

func difficultyDescriptor(d Difficulty) string {
	switch d {
	case Foundational:
		return "basic straightforward accessible"
	case Standard:
		return "moderate balanced typical"
	case Advanced:
		return "challenging complex sophisticated"
	default:
		return ""
	}
}
