package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

var rangeRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// rawHunk tracks how many old and new lines the current header still expects.
type rawHunk struct {
	oldLeft int
	newLeft int
}

func (h *rawHunk) done() bool {
	return h.oldLeft <= 0 && h.newLeft <= 0
}

// TokenizeRaw flattens raw diff text. File metadata, path announcements and
// object-id lines produce no tokens; a "\ No newline" marker sets the flag
// on the preceding line token.
func TokenizeRaw(input string) []Token {
	tokens := []Token{}

	var hunk *rawHunk

	for _, line := range strings.Split(strings.TrimSuffix(input, "\n"), "\n") {
		if strings.HasPrefix(line, `\ `) {
			if n := len(tokens); n > 0 && tokens[n-1].Kind == KindLine {
				tokens[n-1].NoNewline = true
			}

			continue
		}

		if hunk != nil && !hunk.done() {
			if tok, ok := rawLine(line, hunk); ok {
				tokens = append(tokens, tok)

				continue
			}
		}

		hunk = nil

		if next, ok := rawHeader(line); ok {
			hunk = next

			tokens = append(tokens, Token{Kind: KindHeader, Header: line})
		}
	}

	return tokens
}

func rawHeader(line string) (*rawHunk, bool) {
	m := rangeRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	count := func(s string) int {
		if s == "" {
			return 1
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return -1
		}

		return n
	}

	oldLines, newLines := count(m[2]), count(m[4])
	if oldLines < 0 || newLines < 0 {
		return nil, false
	}

	return &rawHunk{oldLeft: oldLines, newLeft: newLines}, true
}

func rawLine(line string, hunk *rawHunk) (Token, bool) {
	if line == "" {
		hunk.oldLeft--
		hunk.newLeft--

		return Token{Kind: KindLine, Op: diffmodel.OpContext}, true
	}

	tok := Token{Kind: KindLine, Text: line[1:]}

	switch line[0] {
	case ' ':
		tok.Op = diffmodel.OpContext
		hunk.oldLeft--
		hunk.newLeft--
	case '+':
		tok.Op = diffmodel.OpAdd
		hunk.newLeft--
	case '-':
		tok.Op = diffmodel.OpDel
		hunk.oldLeft--
	default:
		return Token{}, false
	}

	return tok, true
}

// TokenizeDocument flattens a parsed document. Each hunk contributes its
// raw header, or one rebuilt from its ranges when the raw text is absent,
// followed by its lines.
func TokenizeDocument(doc *diffmodel.Document) []Token {
	tokens := []Token{}

	for i := range doc.Files {
		for j := range doc.Files[i].Hunks {
			hunk := &doc.Files[i].Hunks[j]

			tokens = append(tokens, Token{Kind: KindHeader, Header: headerOf(hunk)})

			for _, line := range hunk.Lines {
				tokens = append(tokens, Token{
					Kind:      KindLine,
					Op:        line.Op,
					Text:      line.Text,
					NoNewline: line.NoNewline,
				})
			}
		}
	}

	return tokens
}

func headerOf(hunk *diffmodel.Hunk) string {
	if hunk.Header != "" {
		return hunk.Header
	}

	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines)
	if hunk.Heading != "" {
		header += " " + hunk.Heading
	}

	return header
}
