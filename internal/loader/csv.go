// Package loader reads the observations CSV and enforces the working
// dataset invariants: year bounds, count defaults, and coordinate
// data-quality handling. The pipeline downstream assumes these hold and
// never re-validates them.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"bird-map-service/internal/domain"
)

// Stats summarizes one load for logging and the validate command.
type Stats struct {
	Rows          int // data rows read, header excluded
	Kept          int
	SkippedYear   int // outside [MinYear, MaxYear]
	SkippedName   int // blank scientific name
	SkippedDate   int // unparsable observation date
	MissingCoords int // kept, but with nil Geo
}

// Columns the loader recognizes, matched case-insensitively against the
// header row so exports with reordered columns still load.
const (
	colScientificName = "scientific_name"
	colCommonName     = "common_name"
	colTaxonomicOrder = "taxonomic_order"
	colFamily         = "family"
	colGenus          = "genus"
	colLatitude       = "latitude"
	colLongitude      = "longitude"
	colObservedAt     = "observation_date"
	colCount          = "count"
	colRarity         = "rarity"
	colDescription    = "description_path"
	colImage          = "image_path"
	colMarker         = "marker_path"
	colAudio          = "audio_path"
	colCredit         = "credit"
)

// Load reads the observations CSV at path. Row-level data-quality gaps are
// counted and skipped or tolerated, never fatal; only unreadable files or
// a missing header abort the load.
func Load(path string, logger *slog.Logger) ([]domain.Observation, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, stats, err := Read(f)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load dataset %s: %w", path, err)
	}

	logger.Info("dataset loaded",
		"path", path,
		"rows", stats.Rows,
		"kept", stats.Kept,
		"skipped_year", stats.SkippedYear,
		"skipped_name", stats.SkippedName,
		"skipped_date", stats.SkippedDate,
		"missing_coords", stats.MissingCoords,
	)
	return records, stats, nil
}

// Read parses observation rows from r, preserving file order.
func Read(r io.Reader) ([]domain.Observation, Stats, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Stats{}, fmt.Errorf("dataset has no header row")
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read header: %w", err)
	}

	cols := indexColumns(header)
	if _, ok := cols[colScientificName]; !ok {
		return nil, Stats{}, fmt.Errorf("dataset header missing %s column", colScientificName)
	}
	if _, ok := cols[colObservedAt]; !ok {
		return nil, Stats{}, fmt.Errorf("dataset header missing %s column", colObservedAt)
	}

	var (
		out   []domain.Observation
		stats Stats
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		obs, ok := parseRow(row, cols, &stats)
		if !ok {
			continue
		}
		stats.Kept++
		if !obs.HasCoords() {
			stats.MissingCoords++
		}
		out = append(out, obs)
	}

	return out, stats, nil
}

// indexColumns maps recognized header names to their positions.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func parseRow(row []string, cols map[string]int, stats *Stats) (domain.Observation, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	scientific := field(colScientificName)
	if scientific == "" {
		stats.SkippedName++
		return domain.Observation{}, false
	}

	observedAt, err := domain.ParseObservationDate(field(colObservedAt))
	if err != nil {
		stats.SkippedDate++
		return domain.Observation{}, false
	}

	year := observedAt.Year()
	if year < domain.MinYear || year > domain.MaxYear {
		stats.SkippedYear++
		return domain.Observation{}, false
	}

	return domain.Observation{
		ScientificName: scientific,
		CommonName:     field(colCommonName),
		TaxonomicOrder: field(colTaxonomicOrder),
		Family:         field(colFamily),
		Genus:          field(colGenus),
		Geo:            domain.ParseCoords(field(colLatitude), field(colLongitude)),
		ObservedAt:     observedAt,
		Year:           year,
		Count:          domain.ParseCountOrDefault(field(colCount)),
		Rarity:         field(colRarity),
		Assets: domain.Assets{
			Description: field(colDescription),
			Image:       field(colImage),
			Marker:      field(colMarker),
			Audio:       field(colAudio),
			Credit:      field(colCredit),
		},
	}, true
}
