// Package prompt compiles the text sent to the model. The prompt has a
// static segment that only changes when the category vocabulary does,
// and a dynamic segment carrying the user command plus compressed lines
// for the files the resolver could not place.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sortme/internal/category"
	"sortme/internal/profile"
)

// ErrContextExceeded means a single file line cannot fit the model
// context even in a batch of its own.
var ErrContextExceeded = errors.New("prompt: file line exceeds model context")

// replyReserve is the slice of the context window left free for the
// model's reply.
const replyReserve = 512

// maxKeywordsPerLine bounds how many keywords a file line carries.
const maxKeywordsPerLine = 5

// Batch is one compiled prompt covering a slice of the residual set.
type Batch struct {
	Index  int      `json:"index"`
	Total  int      `json:"total"`
	Text   string   `json:"-"`
	Tokens int      `json:"tokens"`
	Paths  []string `json:"paths"`
}

// Input is everything one compilation needs.
type Input struct {
	Command    string
	Categories []category.Category
	Residual   []*profile.FileProfile
	Notes      map[string]string
}

// Compiler renders prompts under a fixed token budget. The static
// segment is cached by a digest of the category vocabulary, so repeated
// interpretations in one session pay the rendering cost once.
type Compiler struct {
	contextTokens int

	mu     sync.Mutex
	digest string
	static string
}

func NewCompiler(contextTokens int) *Compiler {
	if contextTokens <= 0 {
		contextTokens = 4096
	}
	return &Compiler{contextTokens: contextTokens}
}

// EstimateTokens approximates the token count of a text as ceil(len/4).
// A crude rule, but it only has to be stable and conservative enough to
// keep batches under the window.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Compile renders one or more batches covering every residual file, in
// path order. Each batch repeats the full static segment so any batch is
// a complete standalone prompt.
func (c *Compiler) Compile(in Input) ([]Batch, error) {
	static := c.staticSegment(in.Categories)
	header := dynamicHeader(in.Command)
	fixed := EstimateTokens(static) + EstimateTokens(header)
	budget := c.contextTokens - replyReserve - fixed
	if budget <= 0 {
		return nil, ErrContextExceeded
	}

	residual := append([]*profile.FileProfile(nil), in.Residual...)
	sort.Slice(residual, func(i, j int) bool { return residual[i].Path < residual[j].Path })

	var batches []Batch
	var lines []string
	var paths []string
	used := 0
	flush := func() {
		if len(lines) == 0 {
			return
		}
		text := static + header + strings.Join(lines, "\n") + "\n\nReply now."
		batches = append(batches, Batch{
			Index:  len(batches),
			Text:   text,
			Tokens: EstimateTokens(text),
			Paths:  paths,
		})
		lines, paths, used = nil, nil, 0
	}

	for _, p := range residual {
		line := FileLine(p, in.Notes[p.Path])
		cost := EstimateTokens(line + "\n")
		if cost > budget {
			return nil, fmt.Errorf("%w: %s", ErrContextExceeded, p.Path)
		}
		if used+cost > budget {
			flush()
		}
		lines = append(lines, line)
		paths = append(paths, p.Path)
		used += cost
	}
	flush()

	if len(residual) > 0 && len(batches) == 0 {
		return nil, ErrContextExceeded
	}
	for i := range batches {
		batches[i].Total = len(batches)
	}
	return batches, nil
}

// FileLine renders the compressed one-line description of a residual
// file: name, type hint, codes, a few keywords, date, and the user's
// note when one exists. Empty fields are omitted.
func FileLine(p *profile.FileProfile, note string) string {
	parts := []string{p.Name}
	if p.TypeHint != "" {
		parts = append(parts, p.TypeHint)
	}
	if len(p.Codes) > 0 {
		parts = append(parts, strings.Join(p.Codes, ","))
	}
	if len(p.Keywords) > 0 {
		kws := p.Keywords
		if len(kws) > maxKeywordsPerLine {
			kws = kws[:maxKeywordsPerLine]
		}
		parts = append(parts, "kw:"+strings.Join(kws, ","))
	}
	if p.Date != "" {
		parts = append(parts, p.Date)
	}
	if p.Summary != "" {
		parts = append(parts, quoteSummary(p.Summary))
	}
	if note != "" {
		parts = append(parts, "note:"+note)
	}
	return "- " + strings.Join(parts, " | ")
}

func quoteSummary(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "'") + `"`
}

// staticSegment renders (or reuses) the instruction block: the role, the
// operation schema with examples, the sandbox rule, and the category
// vocabulary.
func (c *Compiler) staticSegment(categories []category.Category) string {
	h := sha256.New()
	for _, cat := range categories {
		fmt.Fprintf(h, "%s\x00%s\x00", cat.Name, cat.Path)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	c.mu.Lock()
	defer c.mu.Unlock()
	if digest == c.digest && c.static != "" {
		return c.static
	}

	var b strings.Builder
	b.WriteString(roleText)
	b.WriteString(schemaText)
	b.WriteString("Known folders:\n")
	if len(categories) == 0 {
		b.WriteString("- (none yet; create what the files need)\n")
	}
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s\n", cat.Name)
	}
	b.WriteString("\n")

	c.digest = digest
	c.static = b.String()
	return c.static
}

func dynamicHeader(command string) string {
	return fmt.Sprintf("User request: %s\n\nLoose files:\n", strings.TrimSpace(command))
}

const roleText = `You organize the files in one folder. You never touch anything outside it.

Reply in exactly one of two forms.
For questions or anything needing no file changes:
CONVERSATION: <your answer>
For file changes:
COMMAND: <a JSON array of operations>

`

const schemaText = `Allowed operations (no others exist):
{"action":"create_folder","args":{"name":"<folder>","parent":"<optional parent folder>"}}
{"action":"move_file","args":{"src":"<file path>","dst":"<folder path>"}}
{"action":"rename_file","args":{"path":"<file path>","new_name":"<new file name>"}}
{"action":"annotate","args":{"path":"<file path>","note":"<short note>"}}

Example reply:
COMMAND: [{"action":"create_folder","args":{"name":"Documents"}},{"action":"move_file","args":{"src":"report.pdf","dst":"Documents"}}]

Rules:
- Paths are relative to the folder being organized. Never use absolute paths or "..".
- Only move files that appear in the list below.
- Create a folder before moving files into it.
- If nothing matches the request, reply with COMMAND: []

`
