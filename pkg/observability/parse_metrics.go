package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

const (
	metricFilesTotal       = "diffcore.parse.files.total"
	metricHunksTotal       = "diffcore.parse.hunks.total"
	metricLinesTotal       = "diffcore.parse.lines.total"
	metricAttachmentsTotal = "diffcore.context.attachments.total"
	metricFetchDuration    = "diffcore.context.fetch.duration.seconds"
	metricCacheHitsTotal   = "diffcore.context.cache.hits.total"
	metricCacheMissesTotal = "diffcore.context.cache.misses.total"

	attrSide       = "side"
	attrResult     = "result"
	attrSource     = "source"
	attrFileStatus = "file_status"
	attrLineOp     = "line_op"

	resultAttached = "attached"
	resultMissing  = "missing"
	lineOpAdd      = "add"
	lineOpDel      = "del"
)

// ParseMetrics holds OTel instruments describing parsed documents and
// context enrichment.
type ParseMetrics struct {
	filesTotal    metric.Int64Counter
	hunksTotal    metric.Int64Counter
	linesTotal    metric.Int64Counter
	attachments   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// NewParseMetrics creates parse and enrichment instruments from the given meter.
func NewParseMetrics(mt metric.Meter) (*ParseMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &ParseMetrics{
		filesTotal:    b.counter(metricFilesTotal, "Parsed file blocks by status", "{file}"),
		hunksTotal:    b.counter(metricHunksTotal, "Parsed hunks", "{hunk}"),
		linesTotal:    b.counter(metricLinesTotal, "Added and deleted lines", "{line}"),
		attachments:   b.counter(metricAttachmentsTotal, "Context attachments by side and result", "{attachment}"),
		fetchDuration: b.histogram(metricFetchDuration, "Content lookup duration in seconds", "s", durationBucketBoundaries...),
		cacheHits:     b.counter(metricCacheHitsTotal, "Content cache hits", "{hit}"),
		cacheMisses:   b.counter(metricCacheMissesTotal, "Content cache misses", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordDocument records the size of a parsed document.
// Safe to call on a nil receiver (no-op).
func (pm *ParseMetrics) RecordDocument(ctx context.Context, doc *diffmodel.Document) {
	if pm == nil || doc == nil {
		return
	}

	for i := range doc.Files {
		pm.filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrFileStatus, string(doc.Files[i].Status))))
	}

	pm.hunksTotal.Add(ctx, int64(doc.Totals.Hunks))
	pm.linesTotal.Add(ctx, int64(doc.Totals.Additions), metric.WithAttributes(attribute.String(attrLineOp, lineOpAdd)))
	pm.linesTotal.Add(ctx, int64(doc.Totals.Deletions), metric.WithAttributes(attribute.String(attrLineOp, lineOpDel)))
}

// RecordAttachment records whether one side of a hunk received context.
func (pm *ParseMetrics) RecordAttachment(ctx context.Context, side string, attached bool) {
	if pm == nil {
		return
	}

	result := resultMissing
	if attached {
		result = resultAttached
	}

	pm.attachments.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrSide, side),
		attribute.String(attrResult, result),
	))
}

// RecordFetch records the duration of one content lookup.
func (pm *ParseMetrics) RecordFetch(ctx context.Context, source string, duration time.Duration) {
	if pm == nil {
		return
	}

	pm.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrSource, source)))
}

// RecordCache records content cache hit and miss counts.
func (pm *ParseMetrics) RecordCache(ctx context.Context, hits, misses int64) {
	if pm == nil {
		return
	}

	pm.cacheHits.Add(ctx, hits)
	pm.cacheMisses.Add(ctx, misses)
}
