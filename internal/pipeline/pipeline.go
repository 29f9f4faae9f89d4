// Package pipeline filters and deduplicates observation records for map
// rendering. The pipeline is pure: it never mutates its input slice and
// holds no state across invocations, so one Pipeline may serve concurrent
// callers against a shared read-only dataset.
package pipeline

import (
	"log/slog"
	"time"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/geo"
	"bird-map-service/internal/observability"
)

// Pipeline applies predicate filters, the proximity dedup pass, and marker
// identifier assignment, in that fixed order.
type Pipeline struct {
	dedupRadiusKM float64
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// Result is the output of one filter call.
type Result struct {
	// Observations is a fresh ordered slice; MarkerID is 1..N in this
	// order, and DistanceKM is set iff RadiusApplied.
	Observations []domain.Observation `json:"observations"`

	// RadiusApplied reports whether the radius stage ran (radius and
	// center both present in the spec).
	RadiusApplied bool `json:"radius_applied"`

	// Suppressed is the number of records the dedup pass collapsed.
	Suppressed int `json:"suppressed"`

	FilteredAt time.Time `json:"filtered_at"`
}

// New creates a Pipeline with the given dedup suppression radius.
func New(dedupRadiusKM float64, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		dedupRadiusKM: dedupRadiusKM,
		logger:        logger,
		metrics:       metrics,
	}
}

// Filter narrows records to those matching spec, collapses nearby
// same-species sightings, and assigns marker identifiers.
//
// The spec is validated first: an internally inconsistent spec returns a
// wrapped domain.ErrMalformedSpec and no filtering runs. An empty result is
// not an error. Stages apply as successive narrowing passes: species →
// taxonomic order → rarity → year → radius, each skipped when its spec
// field is absent. Rerunning with identical inputs produces identical
// output, marker assignment included.
func (p *Pipeline) Filter(records []domain.Observation, spec domain.FilterSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		p.metrics.FilterRejected.Inc()
		return Result{}, err
	}

	p.metrics.FilterRequests.Inc()
	start := time.Now()

	out := applyPredicates(records, spec)
	radiusApplied := spec.HasRadius()

	suppressed := 0
	if len(out) > 0 {
		before := len(out)
		out = p.Deduplicate(out)
		suppressed = before - len(out)
	}

	out = assignMarkerIDs(out)

	p.metrics.FilterDuration.Observe(time.Since(start).Seconds())
	p.metrics.RecordsReturned.Observe(float64(len(out)))
	p.metrics.RecordsSuppressed.Add(float64(suppressed))
	p.logger.Debug("filter completed",
		"records_in", len(records),
		"records_out", len(out),
		"suppressed", suppressed,
		"radius_applied", radiusApplied,
	)

	return Result{
		Observations:  out,
		RadiusApplied: radiusApplied,
		Suppressed:    suppressed,
		FilteredAt:    domain.Now(),
	}, nil
}

// applyPredicates runs the five predicate stages in their fixed order and
// returns a fresh slice. Distance annotation happens inside the radius
// stage, before its predicate consumes it.
func applyPredicates(records []domain.Observation, spec domain.FilterSpec) []domain.Observation {
	out := keepMatching(records, membershipPredicate(spec.Species, func(o domain.Observation) string { return o.CommonName }))
	out = keepMatching(out, membershipPredicate(spec.TaxonomicOrders, func(o domain.Observation) string { return o.TaxonomicOrder }))
	out = keepMatching(out, membershipPredicate(spec.Rarities, func(o domain.Observation) string { return o.Rarity }))

	if spec.Years != nil {
		years := *spec.Years
		out = keepMatching(out, func(o domain.Observation) bool {
			return o.Year >= years.Min && o.Year <= years.Max
		})
	}

	if spec.HasRadius() {
		out = applyRadius(out, *spec.Radius, *spec.Center)
	}

	return out
}

// keepMatching materializes the records satisfying pred into a new slice.
// A nil pred keeps everything (still copying, so later stages may annotate
// freely without touching the caller's records).
func keepMatching(records []domain.Observation, pred func(domain.Observation) bool) []domain.Observation {
	out := make([]domain.Observation, 0, len(records))
	for _, o := range records {
		if pred == nil || pred(o) {
			out = append(out, o)
		}
	}
	return out
}

// membershipPredicate builds a set-membership predicate over the given
// field, or nil when the set is empty (no restriction).
func membershipPredicate(values []string, field func(domain.Observation) string) func(domain.Observation) bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(o domain.Observation) bool {
		_, ok := set[field(o)]
		return ok
	}
}

// applyRadius annotates each coordinate-bearing record with its distance
// from center, then keeps those inside the inclusive [Min, Max] window.
// Records without coordinates cannot establish inclusion and are dropped.
// Distances are computed in one batch pass over the surviving set.
func applyRadius(records []domain.Observation, radius domain.RadiusKM, center domain.Geo) []domain.Observation {
	points := make([]domain.Geo, 0, len(records))
	for _, o := range records {
		if o.HasCoords() {
			points = append(points, *o.Geo)
		}
	}
	distances := geo.DistancesKM(points, center)

	out := make([]domain.Observation, 0, len(records))
	next := 0
	for _, o := range records {
		if !o.HasCoords() {
			continue
		}
		d := distances[next]
		next++
		if d < radius.Min || d > radius.Max {
			continue
		}
		o.DistanceKM = &d
		out = append(out, o)
	}
	return out
}

// assignMarkerIDs stamps MarkerID 1..N in slice order. The slice is already
// a pipeline-owned copy; ids are unique within this invocation only.
func assignMarkerIDs(records []domain.Observation) []domain.Observation {
	for i := range records {
		records[i].MarkerID = i + 1
	}
	return records
}
