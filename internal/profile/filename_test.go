package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilenameCodes(t *testing.T) {
	cases := []struct {
		name  string
		codes []string
	}{
		{"CS240_hw3.pdf", []string{"CS240"}},
		{"math-101 lecture notes.docx", []string{"MATH101"}},
		{"cs101_homework3.docx", []string{"CS101"}},
		{"BIO201-lab.pdf", []string{"BIO201"}},
		{"vacation-photo.jpg", nil},
		{"CS240 and cs240 again.txt", []string{"CS240"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.codes, ParseFilename(tc.name).Codes)
		})
	}
}

func TestParseFilenameDates(t *testing.T) {
	assert.Equal(t, "2024-03-15", ParseFilename("report_2024-03-15_final.pdf").Date)
	assert.Equal(t, "2024-03-15", ParseFilename("scan 03-15-2024.png").Date)
	assert.Equal(t, "", ParseFilename("notes.txt").Date)
}

func TestParseFilenameHints(t *testing.T) {
	sig := ParseFilename("CS240_hw3_algorithms.pdf")
	assert.Equal(t, "homework", sig.TypeHint)
	assert.Contains(t, sig.Subjects, "computer science")

	sig = ParseFilename("midterm-review.txt")
	assert.Equal(t, "exam", sig.TypeHint)
}

func TestTokenizeOrderedDedup(t *testing.T) {
	sig := ParseFilename("final_final_v2_FINAL.docx")
	assert.Equal(t, []string{"final", "v2"}, sig.Tokens)
}

func TestParseFilenameDeterministic(t *testing.T) {
	a := ParseFilename("CS240_hw3_2024-03-15.pdf")
	b := ParseFilename("CS240_hw3_2024-03-15.pdf")
	assert.Equal(t, a, b)
}
