// Package ingest runs the live sighting consume loop: messages from the
// sightings topic are parsed into observations and appended to the working
// dataset so they appear in subsequent filter calls.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/observability"
)

// Extractor reads one raw sighting from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawSighting, error)
}

// Appender adds an observation to the working dataset.
type Appender interface {
	Append(obs domain.Observation) error
}

// Ingest orchestrates the extract-parse-append loop.
type Ingest struct {
	extractor Extractor
	appender  Appender
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Ingest with the given source and sink.
func New(e Extractor, a Appender, logger *slog.Logger, metrics *observability.Metrics) *Ingest {
	return &Ingest{
		extractor: e,
		appender:  a,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the ingest loop until the context is cancelled. Malformed or
// out-of-bounds sightings are logged, counted, committed, and skipped; only
// extraction failures back off.
func (i *Ingest) Run(ctx context.Context) error {
	i.logger.Info("sighting ingest started")
	i.metrics.IngestRunning.Set(1)
	defer i.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("sighting ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		raw, err := i.extractor.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			i.logger.Error("extract sighting failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		i.processSighting(ctx, raw)
	}
}

// processSighting parses and appends one sighting, committing the offset in
// every case: a bad message should not be redelivered forever.
func (i *Ingest) processSighting(ctx context.Context, raw domain.RawSighting) {
	obs, err := domain.ParseRawSighting(raw)
	if err != nil {
		i.logger.Warn("parse sighting failed, skipping message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		i.metrics.IngestErrors.Inc()
		i.commitOffset(ctx, raw)
		return
	}

	if err := i.appender.Append(obs); err != nil {
		i.logger.Warn("append sighting failed, skipping message",
			"error", err,
			"scientific_name", obs.ScientificName,
			"offset", raw.Offset,
		)
		i.metrics.IngestErrors.Inc()
		i.commitOffset(ctx, raw)
		return
	}

	i.metrics.SightingsIngested.Inc()
	i.commitOffset(ctx, raw)
}

// commitOffset commits the message offset if a commit function is available.
func (i *Ingest) commitOffset(ctx context.Context, raw domain.RawSighting) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		i.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
