package profile

import (
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

// maxExcerptBytes bounds how much of a file the analyzer reads. Keyword
// frequencies over the head of the file are stable across scans, which is
// all the determinism contract needs.
const maxExcerptBytes = 64 * 1024

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "must": true, "can": true, "this": true, "that": true,
	"these": true, "those": true, "you": true, "they": true, "what": true,
	"which": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "all": true, "each": true, "every": true, "some": true,
	"any": true, "not": true, "other": true, "another": true, "such": true,
	"only": true, "just": true, "more": true, "most": true, "many": true,
	"much": true, "very": true, "too": true, "so": true, "also": true,
	"even": true, "still": true, "yet": true, "already": true,
}

// ContentPolicy gates which files get their content read.
type ContentPolicy struct {
	Enabled     bool
	Kinds       map[string]bool
	MaxFileSize int64
}

// Allows reports whether the policy permits reading a file of the given
// kind and size.
func (p ContentPolicy) Allows(kind string, size int64) bool {
	if !p.Enabled || size > p.MaxFileSize {
		return false
	}
	return p.Kinds[kind]
}

// ExtractKeywords ranks words by frequency, filters stop words, and
// returns at most max keywords. Ties break alphabetically so the result
// is deterministic.
func ExtractKeywords(text string, max int) []string {
	if len(text) < 10 {
		return nil
	}
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	counts := make(map[string]int)
	for _, w := range words {
		if len(w) < 3 || stopWords[w] || IsNumericToken(w) {
			continue
		}
		counts[w]++
	}
	if len(counts) == 0 {
		return nil
	}
	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

// Summarize derives the micro-summary from a text excerpt: leading
// whitespace-squashed content, cut at a rune boundary, capped at
// SummaryMaxLen characters.
func Summarize(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	joined := strings.Join(fields, " ")
	if utf8.RuneCountInString(joined) <= SummaryMaxLen {
		return joined
	}
	runes := []rune(joined)
	return string(runes[:SummaryMaxLen])
}

// readExcerpt reads at most maxExcerptBytes from the file and keeps only
// valid text. A read error is surfaced so the scanner can record the file
// as unreadable without aborting the scan.
func readExcerpt(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, maxExcerptBytes)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return "", err
	}
	excerpt := buf[:n]
	if !utf8.Valid(excerpt) {
		// Binary content that slipped past the extension check: drop the
		// tail partial rune and any NUL-heavy garbage lines.
		excerpt = excerpt[:validPrefixLen(excerpt)]
	}
	return string(excerpt), nil
}

// validPrefixLen walks forward rune by rune and stops at the first
// invalid byte, so one pass covers the excerpt no matter where the
// garbage starts.
func validPrefixLen(b []byte) int {
	n := 0
	for n < len(b) {
		if b[n] < utf8.RuneSelf {
			n++
			continue
		}
		r, size := utf8.DecodeRune(b[n:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		n += size
	}
	return n
}

// analyzeContent fills keywords and summary for a profile from its
// on-disk content, honoring the policy. Opaque kinds keep their
// filename-derived signals only.
func analyzeContent(p *FileProfile, absPath string, policy ContentPolicy) error {
	if !policy.Allows(p.Kind, p.Size) {
		return nil
	}
	if p.Kind != KindText {
		// PDF/office/image extraction needs external tooling; profiles for
		// those kinds stay filename-derived.
		return nil
	}
	excerpt, err := readExcerpt(absPath)
	if err != nil {
		return err
	}
	p.Keywords = ExtractKeywords(excerpt, MaxKeywords)
	p.Summary = Summarize(excerpt)
	return nil
}
