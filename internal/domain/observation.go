package domain

import "time"

// Dataset and pipeline constants. These are the tunable knobs of the map
// pipeline; keep them here rather than scattered through stage logic so
// tests can reference them directly.
const (
	// DedupRadiusKM is the suppression radius for the proximity dedup pass.
	// Same-species sightings within this distance of a kept record collapse
	// into one marker at clustered zoom levels.
	DedupRadiusKM = 1.0

	// MinYear and MaxYear bound the working dataset. Records outside this
	// range are dropped at load time, not by a filter option.
	MinYear = 1985
	MaxYear = 2019

	// DefaultCount is assumed when the source omits the individual count.
	DefaultCount = 1
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Assets holds the opaque asset paths attached to a sighting. The pipeline
// passes them through unchanged; only the UI dereferences them.
type Assets struct {
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Marker      string `json:"marker,omitempty"`
	Audio       string `json:"audio,omitempty"`
	Credit      string `json:"credit,omitempty"`
}

// Observation is one bird sighting in the working dataset.
//
// Geo is nil when the source record had no usable coordinates. Such records
// still flow through the name/year predicates but are excluded from every
// distance-dependent stage.
type Observation struct {
	ScientificName string    `json:"scientific_name"`
	CommonName     string    `json:"common_name,omitempty"`
	TaxonomicOrder string    `json:"taxonomic_order,omitempty"`
	Family         string    `json:"family,omitempty"`
	Genus          string    `json:"genus,omitempty"`
	Geo            *Geo      `json:"geo,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
	Year           int       `json:"year"`
	Count          int       `json:"count"`
	Rarity         string    `json:"rarity,omitempty"`
	Assets         Assets    `json:"assets,omitempty"`

	// MarkerID is assigned by the pipeline's final stage: 1..N in output
	// order, unique within a single filter call. Zero on input records.
	MarkerID int `json:"marker_id,omitempty"`

	// DistanceKM is the great-circle distance from the query center,
	// attached only when a radius filter was applied. Not persisted.
	DistanceKM *float64 `json:"distance_km,omitempty"`
}

// HasCoords reports whether the observation carries usable coordinates.
func (o Observation) HasCoords() bool {
	return o.Geo != nil
}
