// Package diffparse converts unified diff text into a diffmodel.Document.
//
// Parsing is a single forward pass over an in-memory string. It performs no
// I/O and keeps all state local to one call, so a Parser may be shared by
// concurrent goroutines.
package diffparse

import (
	"errors"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/identity"
)

// ErrUnexpectedLine is returned in strict mode for a hunk line that does not
// start with ' ', '+', '-' or '\'.
var ErrUnexpectedLine = errors.New("unexpected line inside hunk")

// Options configures a Parser.
type Options struct {
	// IDs generates stable ids. The zero value produces default-length ids.
	IDs identity.Generator
	// Strict rejects malformed hunk headers and unexpected hunk lines instead
	// of tolerating them (unknown lines become context by default).
	Strict bool
}

// Parser builds documents from unified diff text.
type Parser struct {
	opts Options
}

// NewParser creates a Parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse parses input with default options.
func Parse(input string) (*diffmodel.Document, error) {
	return NewParser(Options{}).Parse(input)
}

// parseState is the accumulator folded over the input lines.
type parseState struct {
	input string
	opts  Options
	files []diffmodel.FileDiff
	block *fileBlock
	hunk  *hunkBuilder
}

// Parse converts input into a document. Input without any file boundary
// yields an empty document. In lenient mode Parse never fails.
func (p *Parser) Parse(input string) (*diffmodel.Document, error) {
	state := &parseState{input: input, opts: p.opts, files: []diffmodel.FileDiff{}}

	for _, line := range splitLines(input) {
		err := state.step(line)
		if err != nil {
			return nil, err
		}
	}

	state.finishBlock(len(input))

	return &diffmodel.Document{
		Totals: diffmodel.ComputeTotals(state.files),
		Files:  state.files,
	}, nil
}

func (s *parseState) step(line physicalLine) error {
	kind, value := classifyLine(line.text)

	if s.hunk != nil {
		consumed, err := s.hunk.consume(line, kind, s.opts.Strict)
		if err != nil {
			return err
		}

		if consumed {
			return nil
		}

		s.closeHunk()
	}

	switch kind {
	case kindFileBoundary:
		s.finishBlock(line.start)
		s.block = newBoundaryBlock(line.start, value)
	case kindCombinedBoundary, kindUnmergedNotice:
		s.finishBlock(line.start)
		s.block = newUnmergedBlock(line.start, value)
	case kindHunkHeader:
		return s.openHunk(line)
	default:
		if s.block != nil {
			s.block.applyMetadata(kind, value)
		}
	}

	return nil
}

func (s *parseState) openHunk(line physicalLine) error {
	if s.block == nil {
		return nil
	}

	hunk, err := parseHunkHeader(line.text)
	if err != nil {
		if s.opts.Strict {
			return err
		}

		return nil
	}

	s.hunk = hunk

	return nil
}

func (s *parseState) closeHunk() {
	if s.hunk == nil {
		return
	}

	s.block.hunks = append(s.block.hunks, s.hunk.build())
	s.hunk = nil
}

func (s *parseState) finishBlock(end int) {
	s.closeHunk()

	if s.block == nil {
		return
	}

	s.files = append(s.files, s.block.finalize(s.input, end, s.opts.IDs))
	s.block = nil
}
