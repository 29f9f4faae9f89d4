package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawSightingRecord is the flat JSON structure published by upstream
// collectors for a single sighting. All fields arrive as strings, matching
// the CSV-derived payloads the collectors produce.
type RawSightingRecord struct {
	ScientificName string `json:"scientific_name"`
	CommonName     string `json:"common_name"`
	TaxonomicOrder string `json:"taxonomic_order"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
	ObservedAt     string `json:"observed_at"` // YYYY-MM-DD or RFC 3339
	Count          string `json:"count"`
	Rarity         string `json:"rarity"`
}

// RawSighting represents an unprocessed message from the sightings topic.
type RawSighting struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRawSighting deserializes a RawSighting's value into an Observation.
// Blank or unparsable coordinate fields yield a nil Geo rather than an
// error; a missing scientific name is a hard error because every downstream
// stage keys on it.
func ParseRawSighting(raw RawSighting) (Observation, error) {
	var rec RawSightingRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse raw sighting: %w", err)
	}

	if strings.TrimSpace(rec.ScientificName) == "" {
		return Observation{}, fmt.Errorf("parse raw sighting: missing scientific_name")
	}

	observedAt, err := ParseObservationDate(rec.ObservedAt)
	if err != nil {
		return Observation{}, fmt.Errorf("parse raw sighting: %w", err)
	}

	return Observation{
		ScientificName: strings.TrimSpace(rec.ScientificName),
		CommonName:     strings.TrimSpace(rec.CommonName),
		TaxonomicOrder: strings.TrimSpace(rec.TaxonomicOrder),
		Family:         strings.TrimSpace(rec.Family),
		Genus:          strings.TrimSpace(rec.Genus),
		Geo:            ParseCoords(rec.Latitude, rec.Longitude),
		ObservedAt:     observedAt,
		Year:           observedAt.Year(),
		Count:          ParseCountOrDefault(rec.Count),
		Rarity:         strings.TrimSpace(rec.Rarity),
	}, nil
}

// ParseCoords parses a latitude/longitude string pair. Returns nil when
// either field is blank, unparsable, or outside valid WGS-84 bounds; this is
// the data-quality gap the pipeline tolerates rather than rejects.
func ParseCoords(latStr, lonStr string) *Geo {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &Geo{Lat: lat, Lon: lon}
}

// ParseCountOrDefault parses an individual count, falling back to
// DefaultCount when the field is blank, unparsable, or negative.
func ParseCountOrDefault(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCount
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return DefaultCount
	}
	return n
}

// ParseObservationDate accepts the two timestamp layouts the collectors
// emit: a bare date or full RFC 3339.
func ParseObservationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid observation date %q", s)
	}
	return t, nil
}
