// Package resolve routes files to categories by deterministic rules
// before any model call. Whatever it cannot place becomes the residual
// set that goes into the prompt.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"sortme/internal/category"
	"sortme/internal/profile"
)

// Match is one file the resolver placed, with the rule that placed it.
type Match struct {
	Profile  *profile.FileProfile `json:"profile"`
	Category string               `json:"category"`
	Reason   string               `json:"reason"`
}

// Split is the outcome of resolving one scan: files with a known
// destination and files the model still has to interpret.
type Split struct {
	Resolved []Match                `json:"resolved"`
	Residual []*profile.FileProfile `json:"residual"`
}

// Resolver applies the rule chain against a fixed category vocabulary.
type Resolver struct {
	categories []category.Category
	prefs      map[string]string
}

func New(categories []category.Category, prefs map[string]string) *Resolver {
	return &Resolver{categories: categories, prefs: prefs}
}

// Resolve splits the profiles. Only files sitting directly in the root
// are eligible; anything already inside a folder is left alone and does
// not appear in either set. Rules fire in a fixed order and the first
// match wins, so repeated runs over the same input give the same split.
func (r *Resolver) Resolve(profiles []*profile.FileProfile) Split {
	var s Split
	for _, p := range profiles {
		if !p.InRoot() {
			continue
		}
		if m, ok := r.resolveOne(p); ok {
			s.Resolved = append(s.Resolved, m)
		} else {
			s.Residual = append(s.Residual, p)
		}
	}
	sort.Slice(s.Resolved, func(i, j int) bool { return s.Resolved[i].Profile.Path < s.Resolved[j].Profile.Path })
	sort.Slice(s.Residual, func(i, j int) bool { return s.Residual[i].Path < s.Residual[j].Path })
	return s
}

func (r *Resolver) resolveOne(p *profile.FileProfile) (Match, bool) {
	if cat, ok := r.byExtension(p); ok {
		return Match{Profile: p, Category: cat, Reason: fmt.Sprintf("extension:%s→%s", p.Extension, cat)}, true
	}
	if cat, code, ok := r.byCode(p); ok {
		return Match{Profile: p, Category: cat, Reason: fmt.Sprintf("code:%s→%s", code, cat)}, true
	}
	if cat, word, ok := r.byNameWord(p); ok {
		return Match{Profile: p, Category: cat, Reason: fmt.Sprintf("name:%s→%s", word, cat)}, true
	}
	return Match{}, false
}

func (r *Resolver) byExtension(p *profile.FileProfile) (string, bool) {
	if p.Extension == "" {
		return "", false
	}
	cat, ok := r.prefs[strings.ToLower(p.Extension)]
	return cat, ok
}

// byCode matches identifier codes against category names, both
// directions: "CS101" inside "cs101-notes" and "archive" categories
// named after a code the file carries.
func (r *Resolver) byCode(p *profile.FileProfile) (cat, code string, ok bool) {
	for _, c := range r.categories {
		lowerCat := strings.ToLower(c.Name)
		for _, cd := range p.Codes {
			lowerCode := strings.ToLower(cd)
			if strings.Contains(lowerCat, lowerCode) || strings.Contains(lowerCode, lowerCat) {
				return c.Name, cd, true
			}
		}
	}
	return "", "", false
}

// byNameWord matches words from the category name against filename
// tokens. Short words and numbers are skipped so "to" or "22" never
// claims a file.
func (r *Resolver) byNameWord(p *profile.FileProfile) (cat, word string, ok bool) {
	for _, c := range r.categories {
		for _, w := range categoryWords(c.Name) {
			if profile.ContainsToken(p.Tokens, w) {
				return c.Name, w, true
			}
		}
	}
	return "", "", false
}

func categoryWords(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 && !profile.IsNumericToken(f) {
			out = append(out, f)
		}
	}
	return out
}
