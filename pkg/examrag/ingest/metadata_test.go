package ingest

import (
	"testing"

	"github.com/examforge-ai/examrag/pkg/examrag"
)

func TestExtractMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     FileMetadata
	}{
		{
			name:     "GCE official paper",
			filename: "2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1.pdf",
			want: FileMetadata{
				Year:      "2016",
				PaperType: examrag.Paper1,
				ExamCode:  "1128",
				Source:    "gce_official",
			},
		},
		{
			name:     "school paper with infix year",
			filename: "Sec4_English_2021_SA2_admiralty_Paper1.pdf",
			want: FileMetadata{
				Year:      "2021",
				PaperType: examrag.Paper1,
				School:    "admiralty",
				Source:    "school_paper",
			},
		},
		{
			name:     "OCR output with timestamp suffix",
			filename: "2015_GCE-O-LEVEL-ENGLISH-1128-Paper-2-20251107-164330.txt",
			want: FileMetadata{
				Year:      "2015",
				PaperType: examrag.Paper2,
				ExamCode:  "1128",
				Source:    "gce_official",
			},
		},
		{
			name:     "P-shorthand paper designation",
			filename: "English_2020_Mock_P1.txt",
			want: FileMetadata{
				Year:      "2020",
				PaperType: examrag.Paper1,
				Source:    "unknown",
			},
		},
		{
			name:     "answer sheet flagged",
			filename: "2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1_Ans.pdf",
			want: FileMetadata{
				IsAnswerSheet: true,
			},
		},
		{
			name:     "no recognizable fields",
			filename: "notes.txt",
			want: FileMetadata{
				Source: "unknown",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractMetadata(tt.filename)
			if got.Year != tt.want.Year {
				t.Errorf("Year = %q, want %q", got.Year, tt.want.Year)
			}
			if got.PaperType != tt.want.PaperType {
				t.Errorf("PaperType = %q, want %q", got.PaperType, tt.want.PaperType)
			}
			if got.ExamCode != tt.want.ExamCode {
				t.Errorf("ExamCode = %q, want %q", got.ExamCode, tt.want.ExamCode)
			}
			if got.School != tt.want.School {
				t.Errorf("School = %q, want %q", got.School, tt.want.School)
			}
			if got.Source != tt.want.Source {
				t.Errorf("Source = %q, want %q", got.Source, tt.want.Source)
			}
			if got.IsAnswerSheet != tt.want.IsAnswerSheet {
				t.Errorf("IsAnswerSheet = %v, want %v", got.IsAnswerSheet, tt.want.IsAnswerSheet)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     bool
	}{
		{"2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1.pdf", false},
		{"Sec4_English_2021_SA2_admiralty_Paper1.pdf", false},
		{"2016_GCE-O-LEVEL-ENGLISH-1128-Paper-1_Ans.pdf", true},
		{"marking_answer_scheme_Paper2.pdf", true},
		{"syllabus_overview.pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			if got := ShouldSkip(tt.filename); got != tt.want {
				t.Errorf("ShouldSkip(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestDetectSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want examrag.Section
	}{
		{
			name: "explicit section marker",
			text: "SECTION A [10 marks] Read the passage below.",
			want: examrag.SectionA,
		},
		{
			name: "editing content",
			text: "Correct the grammatical errors in this editing exercise.",
			want: examrag.SectionA,
		},
		{
			name: "situational writing content",
			text: "You are asked to write an email to your principal.",
			want: examrag.SectionB,
		},
		{
			name: "continuous writing content",
			text: "Write a composition of at least 350 words on one of these topics.",
			want: examrag.SectionC,
		},
		{
			name: "visual text comprehension",
			text: "Study the advertisement and answer the questions.",
			want: examrag.SectionA,
		},
		{
			name: "summary task",
			text: "Write a summary in no more than 80 words.",
			want: examrag.SectionC,
		},
		{
			name: "unclear content",
			text: "General instructions for candidates.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectSection(tt.text); got != tt.want {
				t.Errorf("DetectSection() = %q, want %q", got, tt.want)
			}
		})
	}
}
