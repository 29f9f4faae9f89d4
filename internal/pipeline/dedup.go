package pipeline

import (
	"sort"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/geo"
)

// Deduplicate collapses nearby same-species sightings to one representative
// each, the dataset used at clustered map zoom levels where multiple
// markers within ~1 km would visually spiral apart.
//
// The pass is greedy and order-dependent, not a transitive clustering:
// records are walked in sorted order (scientific name
// ascending, then most recent first, then highest count first); each
// still-kept record suppresses every later still-kept record of the same
// species within the suppression radius. A suppressed record never acts as
// a pivot, so two records each beyond the radius from a kept pivot but
// within it of each other may both survive. Records without coordinates
// take no part in the pass and ride through in sort order.
//
// The returned slice is fresh, in sort order. Input order is irrelevant to
// the output except as the tie-break for fully identical sort keys.
func (p *Pipeline) Deduplicate(records []domain.Observation) []domain.Observation {
	if len(records) == 0 {
		return []domain.Observation{}
	}

	sorted := sortForDedup(records)
	suppressed := suppressedIndexes(sorted, p.dedupRadiusKM)

	kept := make([]domain.Observation, 0, len(sorted)-len(suppressed))
	for i, o := range sorted {
		if _, drop := suppressed[i]; drop {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// sortForDedup returns a sorted copy of records. The ordering decides which
// observation in a cluster survives: the most recent, and among same-date
// records the highest count. The sort is stable with a fully determined
// key, so identical inputs always yield identical output order.
func sortForDedup(records []domain.Observation) []domain.Observation {
	sorted := append([]domain.Observation(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ScientificName != b.ScientificName {
			return a.ScientificName < b.ScientificName
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.After(b.ObservedAt)
		}
		return a.Count > b.Count
	})
	return sorted
}

// suppressedIndexes runs the greedy pivot pass over the sorted slice and
// returns the set of suppressed positions. The slice is not modified; the
// kept sequence is materialized by the caller.
func suppressedIndexes(sorted []domain.Observation, radiusKM float64) map[int]struct{} {
	suppressed := make(map[int]struct{})

	for i, pivot := range sorted {
		if _, drop := suppressed[i]; drop {
			continue
		}
		if !pivot.HasCoords() {
			continue
		}

		for j := i + 1; j < len(sorted); j++ {
			candidate := sorted[j]
			if candidate.ScientificName != pivot.ScientificName {
				// Sorted by name, so the species group has ended.
				break
			}
			if _, drop := suppressed[j]; drop {
				continue
			}
			if !candidate.HasCoords() {
				continue
			}
			d := geo.DistanceKM(candidate.Geo.Lat, candidate.Geo.Lon, pivot.Geo.Lat, pivot.Geo.Lon)
			if d <= radiusKM {
				suppressed[j] = struct{}{}
			}
		}
	}

	return suppressed
}
