package profile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsFrequencyThenAlpha(t *testing.T) {
	text := "invoice invoice invoice payment payment banana apple"
	kws := ExtractKeywords(text, 10)
	assert.Equal(t, []string{"invoice", "payment", "apple", "banana"}, kws)
}

func TestExtractKeywordsFilters(t *testing.T) {
	text := "the and 42 1234 ok go golang golang golang testing"
	kws := ExtractKeywords(text, 10)
	// Stop words, numerics, and words under three characters are gone.
	assert.Equal(t, []string{"golang", "testing"}, kws)
}

func TestExtractKeywordsCap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 3)
	kws := ExtractKeywords(text, 2)
	assert.Len(t, kws, 2)
	assert.Equal(t, []string{"alpha", "beta"}, kws, "equal counts break alphabetically")
}

func TestExtractKeywordsShortText(t *testing.T) {
	assert.Nil(t, ExtractKeywords("hi", 10))
}

func TestSummarizeSquashesAndCaps(t *testing.T) {
	assert.Equal(t, "one two three", Summarize("  one\n\ttwo   three  "))

	long := strings.Repeat("word ", 60)
	sum := Summarize(long)
	assert.Equal(t, SummaryMaxLen, len([]rune(sum)))

	assert.Equal(t, "", Summarize("   \n\t "))
}

func TestContentPolicyAllows(t *testing.T) {
	p := ContentPolicy{Enabled: true, Kinds: map[string]bool{KindText: true}, MaxFileSize: 100}
	assert.True(t, p.Allows(KindText, 50))
	assert.False(t, p.Allows(KindText, 200), "over the size cap")
	assert.False(t, p.Allows(KindPdf, 50), "kind not in policy")

	p.Enabled = false
	assert.False(t, p.Allows(KindText, 50))
}

func TestValidPrefixLen(t *testing.T) {
	assert.Equal(t, 5, validPrefixLen([]byte("hello")))
	assert.Equal(t, len("héllo"), validPrefixLen([]byte("héllo")))

	// Truncated multi-byte rune at the tail.
	cut := []byte("hé")[:2]
	assert.Equal(t, 1, validPrefixLen(cut))

	// An invalid byte midway through a large excerpt must cost one
	// pass, not one full-buffer scan per trimmed byte.
	big := []byte(strings.Repeat("a", 32*1024) + "\xff" + strings.Repeat("b", 32*1024))
	start := time.Now()
	assert.Equal(t, 32*1024, validPrefixLen(big))
	assert.Less(t, time.Since(start), time.Second)
}

func TestKindForExtension(t *testing.T) {
	assert.Equal(t, KindText, KindForExtension(".md"))
	assert.Equal(t, KindPdf, KindForExtension(".pdf"))
	assert.Equal(t, KindOffice, KindForExtension(".docx"))
	assert.Equal(t, KindImage, KindForExtension(".jpg"))
	assert.Equal(t, KindArchive, KindForExtension(".zip"))
	assert.Equal(t, KindBinary, KindForExtension(".exe"))
}
