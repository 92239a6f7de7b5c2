// Package verify checks that a parsed document is equivalent to the raw diff
// it was built from.
//
// Both sides are flattened into a sequence of header and line tokens by two
// independent tokenizers, and the sequences are compared element by element.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// TailWindow is the number of tokens reported from each side on a mismatch.
const TailWindow = 5

// ErrMismatch is the sentinel wrapped by *MismatchError.
var ErrMismatch = errors.New("token streams differ")

// TokenKind distinguishes hunk headers from hunk lines.
type TokenKind string

// Token kinds.
const (
	KindHeader TokenKind = "header"
	KindLine   TokenKind = "line"
)

// Token is one element of a flattened diff.
type Token struct {
	Kind      TokenKind    `json:"kind"`
	Header    string       `json:"header,omitempty"`
	Op        diffmodel.Op `json:"op,omitempty"`
	Text      string       `json:"text,omitempty"`
	NoNewline bool         `json:"noNewline,omitempty"`
}

func (t Token) String() string {
	if t.Kind == KindHeader {
		return t.Header
	}

	s := string(t.Op.Prefix()) + t.Text
	if t.NoNewline {
		s += ` \ No newline`
	}

	return s
}

func (t Token) emptyContext() bool {
	return t.Kind == KindLine && t.Op == diffmodel.OpContext && t.Text == "" && !t.NoNewline
}

// MismatchError reports the first diverging token and the tail of both
// sequences up to that point.
type MismatchError struct {
	Index   int
	RawLen  int
	DocLen  int
	RawTail []Token
	DocTail []Token
}

func (e *MismatchError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s at token %d (raw has %d, document has %d)", ErrMismatch, e.Index, e.RawLen, e.DocLen)
	writeTail(&sb, "raw", e.RawTail)
	writeTail(&sb, "document", e.DocTail)

	return sb.String()
}

func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

func writeTail(sb *strings.Builder, label string, tail []Token) {
	fmt.Fprintf(sb, "\n  %s tail:", label)

	for _, tok := range tail {
		fmt.Fprintf(sb, "\n    %s %q", tok.Kind, tok.String())
	}
}

// Verify tokenizes input and doc and compares the results.
func Verify(input string, doc *diffmodel.Document) error {
	return Compare(TokenizeRaw(input), TokenizeDocument(doc))
}

// Compare reports the first difference between raw and document tokens.
// Empty context tokens at the end of the document sequence are ignored;
// a lenient parser produces them for blank lines after the final hunk.
func Compare(raw, doc []Token) error {
	for len(doc) > len(raw) && doc[len(doc)-1].emptyContext() {
		doc = doc[:len(doc)-1]
	}

	limit := min(len(raw), len(doc))

	index := -1

	for i := range limit {
		if raw[i] != doc[i] {
			index = i

			break
		}
	}

	if index < 0 {
		if len(raw) == len(doc) {
			return nil
		}

		index = limit
	}

	return &MismatchError{
		Index:   index,
		RawLen:  len(raw),
		DocLen:  len(doc),
		RawTail: tail(raw, index),
		DocTail: tail(doc, index),
	}
}

// tail returns up to TailWindow tokens ending at index.
func tail(tokens []Token, index int) []Token {
	end := min(index+1, len(tokens))
	start := max(0, end-TailWindow)

	return append([]Token(nil), tokens[start:end]...)
}
