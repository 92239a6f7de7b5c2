// Package enrich attaches surrounding source lines to parsed hunks.
//
// For each side of a file the enricher resolves whole-file content from the
// recorded object id, then from an explicit revision, then (after side only)
// from the working tree. Every failure degrades to a missing attachment.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
	"github.com/Sumatoshi-tech/diffcore/pkg/observability"
)

// DefaultRadius is the number of lines attached on each side of a hunk.
const DefaultRadius = 20

// DefaultWorkers bounds concurrent file lookups.
const DefaultWorkers = 8

// Sides of a hunk.
const (
	SideBefore = "before"
	SideAfter  = "after"
)

// Content sources, in resolution order.
const (
	SourceObject   = "object"
	SourceRevision = "revision"
	SourceWorktree = "worktree"
)

var (
	// ErrInvalidRadius is returned for a negative radius.
	ErrInvalidRadius = errors.New("context radius must not be negative")
	// ErrBinaryContent marks resolved content that looks binary.
	ErrBinaryContent = errors.New("binary content")
	errNoSource      = errors.New("no content source")
)

// Options configure an Enricher.
type Options struct {
	// Radius is the line count attached around each hunk. Zero disables enrichment.
	Radius int
	// Workers bounds concurrent files; zero means DefaultWorkers.
	Workers int
	// BeforeRev and AfterRev name revisions to read when object ids are absent or fail.
	BeforeRev string
	AfterRev  string
	// Worktree is the after-side fallback. Nil disables it.
	Worktree FileReader
	Logger   *slog.Logger
	Metrics  *observability.ParseMetrics
}

// Enricher resolves file content and slices it around hunks.
type Enricher struct {
	source ContentSource
	opts   Options
	logger *slog.Logger
}

// New creates an Enricher. source may be nil when only the worktree is used.
func New(source ContentSource, opts Options) (*Enricher, error) {
	if opts.Radius < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, opts.Radius)
	}

	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.Discard()
	}

	return &Enricher{
		source: source,
		opts:   opts,
		logger: observability.Component(logger, "enrich"),
	}, nil
}

// Enrich returns doc decorated with context attachments. doc is not modified
// and ids and content hashes are carried over unchanged.
func (e *Enricher) Enrich(ctx context.Context, doc *diffmodel.Document) *diffmodel.EnrichedDocument {
	out := diffmodel.Wrap(doc)
	if e.opts.Radius == 0 {
		return out
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Workers)

	for i := range out.Files {
		file := &out.Files[i]
		if file.Binary || len(file.Hunks) == 0 {
			continue
		}

		group.Go(func() error {
			e.enrichFile(groupCtx, file)

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // workers never fail.

	total := doc.Totals.Hunks
	attached := out.Attached()

	attrs := []slog.Attr{
		slog.Int("radius", e.opts.Radius),
		slog.Int("hunks", total),
		slog.Int("attached", attached),
		slog.Int("skipped", total-attached),
	}

	if cached, ok := e.source.(*CachedSource); ok {
		delta := cached.Unreported()
		e.opts.Metrics.RecordCache(ctx, delta.Hits, delta.Misses)
		attrs = append(attrs, slog.Float64("cache_hit_rate", delta.HitRate()))
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "context attached", attrs...)

	return out
}

func (e *Enricher) enrichFile(ctx context.Context, file *diffmodel.EnrichedFile) {
	var before, after []string

	if file.OldPath != "" {
		before = e.resolveSide(ctx, file, SideBefore)
	}

	if file.NewPath != "" {
		after = e.resolveSide(ctx, file, SideAfter)
	}

	for j := range file.Hunks {
		hunk := &file.Hunks[j]
		attachment := &diffmodel.HunkContext{Radius: e.opts.Radius}

		if before != nil {
			attachment.Before = Slice(before, hunk.OldStart, hunk.OldLines, e.opts.Radius)
		}

		if after != nil {
			attachment.After = Slice(after, hunk.NewStart, hunk.NewLines, e.opts.Radius)
		}

		e.opts.Metrics.RecordAttachment(ctx, SideBefore, attachment.Before != nil)
		e.opts.Metrics.RecordAttachment(ctx, SideAfter, attachment.After != nil)

		if !attachment.Empty() {
			hunk.Context = attachment
		}
	}
}

type lookup struct {
	source string
	fetch  func() (*gitlib.CachedBlob, error)
}

// resolveSide returns the split content of one side, or nil.
func (e *Enricher) resolveSide(ctx context.Context, file *diffmodel.EnrichedFile, side string) []string {
	for _, step := range e.lookups(ctx, file, side) {
		start := time.Now()
		blob, err := step.fetch()
		e.opts.Metrics.RecordFetch(ctx, step.source, time.Since(start))

		if err == nil && blob.IsBinary() {
			err = ErrBinaryContent
		}

		if err != nil {
			e.logger.DebugContext(ctx, "context lookup failed",
				slog.String("file", file.ID),
				slog.String("path", file.Path()),
				slog.String("side", side),
				slog.String("source", step.source),
				slog.Any("error", err),
			)

			if errors.Is(err, ErrBinaryContent) {
				return nil
			}

			continue
		}

		return blob.Lines()
	}

	return nil
}

func (e *Enricher) lookups(ctx context.Context, file *diffmodel.EnrichedFile, side string) []lookup {
	path, object, revision := file.OldPath, gitlib.ObjectID(file.OldObject), e.opts.BeforeRev
	if side == SideAfter {
		path, object, revision = file.NewPath, gitlib.ObjectID(file.NewObject), e.opts.AfterRev
	}

	var steps []lookup

	if e.source != nil && object != "" && !object.IsZero() {
		steps = append(steps, lookup{SourceObject, func() (*gitlib.CachedBlob, error) {
			return e.source.ReadObject(ctx, object)
		}})
	}

	if e.source != nil && revision != "" {
		steps = append(steps, lookup{SourceRevision, func() (*gitlib.CachedBlob, error) {
			return e.source.ReadAt(ctx, revision, path)
		}})
	}

	if side == SideAfter && e.opts.Worktree != nil {
		steps = append(steps, lookup{SourceWorktree, func() (*gitlib.CachedBlob, error) {
			return e.opts.Worktree.ReadFile(ctx, path)
		}})
	}

	if len(steps) == 0 {
		steps = append(steps, lookup{"none", func() (*gitlib.CachedBlob, error) {
			return nil, errNoSource
		}})
	}

	return steps
}

// Slice returns lines[start-1-radius : start-1+count+radius] clamped to the
// content. start is 1-based.
func Slice(lines []string, start, count, radius int) *diffmodel.ContextSlice {
	lo := min(max(0, start-1-radius), len(lines))
	hi := min(max(lo, start-1+count+radius), len(lines))

	return &diffmodel.ContextSlice{
		FirstLine: lo + 1,
		Lines:     append([]string{}, lines[lo:hi]...),
	}
}
