package ingest

import (
	"regexp"
	"strings"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

// FileMetadata is what a paper filename reveals about its contents.
type FileMetadata struct {
	Year          string
	PaperType     examrag.PaperFormat
	ExamCode      string
	School        string
	Source        string
	IsAnswerSheet bool
	RawFilename   string
}

var (
	yearPrefixRe = regexp.MustCompile(`^(\d{4})`)
	yearInfixRe  = regexp.MustCompile(`_(\d{4})_`)
	paperHyphRe  = regexp.MustCompile(`(?i)Paper-(\d)`)
	paperPlainRe = regexp.MustCompile(`(?i)Paper(\d)`)
	paperShortRe = regexp.MustCompile(`(?i)_P(\d)[._]`)
	examCodeRe   = regexp.MustCompile(`(?i)ENGLISH-(\d+)`)
	schoolRe     = regexp.MustCompile(`(?i)SA\d_([a-zA-Z]+)_Paper`)
)

// ExtractMetadata parses a paper filename. Supported shapes:
//
//   - GCE official: 2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1.pdf
//   - School paper: Sec4_English_2021_SA2_admiralty_Paper1.pdf
//   - With timestamp: 2015_GCE-O-LEVEL-ENGLISH-1128-Paper-2-20251107-164330.txt
func ExtractMetadata(filename string) FileMetadata {
	md := FileMetadata{RawFilename: filename}

	lower := strings.ToLower(filename)
	if strings.Contains(lower, "_ans") || strings.Contains(lower, "_answer") {
		md.IsAnswerSheet = true
		return md
	}

	if m := yearPrefixRe.FindStringSubmatch(filename); m != nil {
		md.Year = m[1]
	} else if m := yearInfixRe.FindStringSubmatch(filename); m != nil {
		md.Year = m[1]
	}

	if m := paperHyphRe.FindStringSubmatch(filename); m != nil {
		md.PaperType = examrag.PaperFormat("paper_" + m[1])
	} else if m := paperPlainRe.FindStringSubmatch(filename); m != nil {
		md.PaperType = examrag.PaperFormat("paper_" + m[1])
	} else if m := paperShortRe.FindStringSubmatch(filename); m != nil {
		md.PaperType = examrag.PaperFormat("paper_" + m[1])
	}

	if m := examCodeRe.FindStringSubmatch(filename); m != nil {
		md.ExamCode = m[1]
	}
	if m := schoolRe.FindStringSubmatch(filename); m != nil {
		md.School = strings.ToLower(m[1])
	}

	switch {
	case strings.Contains(strings.ToUpper(filename), "GCE"):
		md.Source = "gce_official"
	case strings.Contains(filename, "Sec4") || strings.Contains(filename, "SA2"):
		md.Source = "school_paper"
	default:
		md.Source = "unknown"
	}

	return md
}

// ShouldSkip reports whether a file should be skipped during sync: answer
// sheets and files without a clear paper designation.
func ShouldSkip(filename string) bool {
	lower := strings.ToLower(filename)
	if strings.Contains(lower, "_ans") || strings.Contains(lower, "_answer") {
		return true
	}
	return !strings.Contains(lower, "paper")
}

var (
	sectionARe = regexp.MustCompile(`section\s*a\s*[\[(]`)
	sectionBRe = regexp.MustCompile(`section\s*b\s*[\[(]`)
	sectionCRe = regexp.MustCompile(`section\s*c\s*[\[(]`)
)

// DetectSection guesses which exam section a chunk of text belongs to,
// first from explicit section markers, then from characteristic content.
// Returns "" when unclear.
func DetectSection(text string) examrag.Section {
	lower := strings.ToLower(text)

	switch {
	case sectionARe.MatchString(lower):
		return examrag.SectionA
	case sectionBRe.MatchString(lower):
		return examrag.SectionB
	case sectionCRe.MatchString(lower):
		return examrag.SectionC
	}

	switch {
	case strings.Contains(lower, "editing") && strings.Contains(lower, "grammatical"):
		return examrag.SectionA
	case strings.Contains(lower, "situational writing") || strings.Contains(lower, "write an email"):
		return examrag.SectionB
	case strings.Contains(lower, "continuous writing") || strings.Contains(lower, "write a composition"):
		return examrag.SectionC
	case strings.Contains(lower, "visual text") || strings.Contains(lower, "advertisement"):
		return examrag.SectionA
	case strings.Contains(lower, "summary") && strings.Contains(lower, "words"):
		return examrag.SectionC
	}

	return ""
}
