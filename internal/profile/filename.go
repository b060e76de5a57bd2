package profile

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	codePattern  = regexp.MustCompile(`\b([A-Za-z]{2,4})[-_ ]?([0-9]{3,4})\b`)
	tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

	dateISOPattern    = regexp.MustCompile(`\b(\d{4})[-._](\d{2})[-._](\d{2})\b`)
	dateUSPattern     = regexp.MustCompile(`\b(\d{2})[-/](\d{2})[-/](\d{4})\b`)
	dateShortPattern  = regexp.MustCompile(`\b(\d{2})-(\d{2})-(\d{2})\b`)
	numberOnlyPattern = regexp.MustCompile(`^[0-9]+$`)
)

var typeHints = []struct {
	hint     string
	keywords []string
}{
	{"homework", []string{"hw", "homework", "assignment", "assign", "problemset", "pset", "problem"}},
	{"lecture", []string{"lecture", "lect", "class", "notes", "note"}},
	{"exam", []string{"exam", "test", "quiz", "midterm", "final"}},
	{"project", []string{"project", "proj", "lab"}},
	{"document", []string{"doc", "document", "paper", "essay", "report"}},
	{"presentation", []string{"presentation", "pres", "slides", "ppt"}},
	{"code", []string{"code", "program", "script", "src", "source"}},
}

var subjectHints = []struct {
	subject  string
	keywords []string
}{
	{"math", []string{"math", "mathematics", "calculus", "algebra", "geometry", "statistics", "linear", "differential", "integral", "trig"}},
	{"computer science", []string{"cs", "computer", "programming", "algorithm", "software", "python", "java", "javascript"}},
	{"science", []string{"science", "physics", "chemistry", "biology", "bio", "chem"}},
	{"engineering", []string{"engineering", "mechanical", "electrical", "civil"}},
	{"business", []string{"business", "finance", "accounting", "economics", "econ", "marketing"}},
	{"language", []string{"english", "spanish", "french", "language", "literature", "writing"}},
	{"history", []string{"history", "hist", "historical"}},
	{"art", []string{"art", "design", "drawing", "painting", "creative"}},
}

// FilenameSignals is everything extracted from a filename alone.
type FilenameSignals struct {
	Tokens   []string
	Codes    []string
	Date     string
	TypeHint string
	Subjects []string
}

// ParseFilename extracts ordered tokens, identifier codes, a normalized
// date, a type hint, and subject hints from a filename. The extraction is
// pure string work, so two scans of an unchanged file agree byte for byte.
func ParseFilename(name string) FilenameSignals {
	stem := name
	if dot := strings.LastIndex(name, "."); dot > 0 {
		stem = name[:dot]
	}
	lower := strings.ToLower(stem)

	sig := FilenameSignals{
		Tokens: tokenize(lower),
		Codes:  identifierCodes(name),
		Date:   normalizedDate(name),
	}

	for _, t := range typeHints {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				sig.TypeHint = t.hint
				break
			}
		}
		if sig.TypeHint != "" {
			break
		}
	}

	for _, s := range subjectHints {
		for _, kw := range s.keywords {
			if ContainsToken(sig.Tokens, kw) || strings.Contains(lower, kw) && len(kw) > 3 {
				sig.Subjects = append(sig.Subjects, s.subject)
				break
			}
		}
	}
	return sig
}

// tokenize splits the lowercased stem into alphanumeric runs, preserving
// order and dropping duplicates.
func tokenize(lower string) []string {
	raw := tokenPattern.FindAllString(lower, -1)
	seen := make(map[string]bool, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// identifierCodes finds course-style codes (CS240, MATH-101, cs 159) and
// normalizes them to upper case with separators removed. Underscores are
// treated as spaces first; regexp word boundaries do not break on them.
func identifierCodes(name string) []string {
	cleaned := strings.ReplaceAll(name, "_", " ")
	matches := codePattern.FindAllStringSubmatch(cleaned, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		code := strings.ToUpper(m[1]) + m[2]
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// normalizedDate returns the first date found in the name as YYYY-MM-DD.
func normalizedDate(name string) string {
	cleaned := strings.ReplaceAll(name, "_", " ")
	if m := dateISOPattern.FindStringSubmatch(cleaned); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := dateUSPattern.FindStringSubmatch(cleaned); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], m[1], m[2])
	}
	if m := dateShortPattern.FindStringSubmatch(cleaned); m != nil {
		return fmt.Sprintf("20%s-%s-%s", m[3], m[1], m[2])
	}
	return ""
}

// ContainsToken reports whether want appears among the parsed tokens.
func ContainsToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

// IsNumericToken reports whether a token is digits only. Used by the
// compiler to keep assignment numbers out of the keyword budget.
func IsNumericToken(tok string) bool {
	return numberOnlyPattern.MatchString(tok)
}
