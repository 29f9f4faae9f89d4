// Command validate performs offline integrity checks on an observations CSV
// before it is shipped as the working dataset. It verifies the loader's
// invariants hold on every kept record, that the filter pipeline is
// deterministic over the file, and reports proximity-grouping statistics.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/observations.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"bird-map-service/internal/domain"
	"bird-map-service/internal/loader"
	"bird-map-service/internal/observability"
	"bird-map-service/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataset := flag.String("dataset", "", "path to the observations CSV")
	flag.Parse()

	if *dataset == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataset); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	// Fix the clock so repeated runs produce identical filter results.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Observation Dataset Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records, stats, err := loader.Load(path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLoadStats(stats),
		validateRecordInvariants(records),
		validateDeterminism(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d rows read, %d kept, %d skipped (year=%d, name=%d, date=%d), %d without coordinates\n",
		stats.Rows, stats.Kept,
		stats.SkippedYear+stats.SkippedName+stats.SkippedDate,
		stats.SkippedYear, stats.SkippedName, stats.SkippedDate,
		stats.MissingCoords)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	printStats(records)

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Load Stats ──
// Sanity checks on what the loader kept and dropped.

func validateLoadStats(stats loader.Stats) *phase {
	p := &phase{name: "Phase 1: Load Stats"}

	if stats.Kept == 0 {
		p.errorf("dataset has no usable records")
	}
	if stats.Rows > 0 {
		dropped := stats.Rows - stats.Kept
		if dropped*10 > stats.Rows {
			p.errorf("more than 10%% of rows dropped (%d of %d); check the export", dropped, stats.Rows)
		}
	}
	return p
}

// ── Phase 2: Record Invariants ──
// Every kept record must satisfy the invariants the pipeline assumes.

func validateRecordInvariants(records []domain.Observation) *phase {
	p := &phase{name: "Phase 2: Record Invariants"}

	for i, o := range records {
		if o.ScientificName == "" {
			p.errorf("record %d: empty scientific name", i)
		}
		if o.Year < domain.MinYear || o.Year > domain.MaxYear {
			p.errorf("record %d (%s): year %d outside [%d, %d]", i, o.ScientificName, o.Year, domain.MinYear, domain.MaxYear)
		}
		if o.Year != o.ObservedAt.Year() {
			p.errorf("record %d (%s): year %d disagrees with observation date %s", i, o.ScientificName, o.Year, o.ObservedAt.Format("2006-01-02"))
		}
		if o.Count < 1 {
			p.errorf("record %d (%s): count %d below the default of %d", i, o.ScientificName, o.Count, domain.DefaultCount)
		}
		if o.Geo != nil {
			if o.Geo.Lat < -90 || o.Geo.Lat > 90 || o.Geo.Lon < -180 || o.Geo.Lon > 180 {
				p.errorf("record %d (%s): coordinates (%g, %g) outside WGS-84 bounds", i, o.ScientificName, o.Geo.Lat, o.Geo.Lon)
			}
		}
	}
	return p
}

// ── Phase 3: Filter Determinism ──
// Two unfiltered runs over the same file must agree record for record,
// marker ID for marker ID.

func validateDeterminism(records []domain.Observation) *phase {
	p := &phase{name: "Phase 3: Filter Determinism"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipe := pipeline.New(domain.DedupRadiusKM, logger, observability.NewMetricsForTesting())

	first, err := pipe.Filter(records, domain.FilterSpec{})
	if err != nil {
		p.errorf("first filter run: %v", err)
		return p
	}
	second, err := pipe.Filter(records, domain.FilterSpec{})
	if err != nil {
		p.errorf("second filter run: %v", err)
		return p
	}

	if diff := cmp.Diff(first.Observations, second.Observations); diff != "" {
		p.errorf("repeated runs disagree (-first +second):\n%s", diff)
	}
	for i, o := range first.Observations {
		if o.MarkerID != i+1 {
			p.errorf("marker IDs not contiguous: position %d has ID %d", i, o.MarkerID)
			break
		}
	}
	return p
}

// ── Stats ──

type speciesCount struct {
	name  string
	count int
}

func printStats(records []domain.Observation) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipe := pipeline.New(domain.DedupRadiusKM, logger, observability.NewMetricsForTesting())

	result, err := pipe.Filter(records, domain.FilterSpec{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: filter: %v\n", err)
		return
	}

	bySpecies := map[string]int{}
	for _, o := range records {
		bySpecies[o.ScientificName]++
	}
	sc := make([]speciesCount, 0, len(bySpecies))
	for name, c := range bySpecies {
		sc = append(sc, speciesCount{name, c})
	}
	sort.Slice(sc, func(i, j int) bool { return sc[i].count > sc[j].count })

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total records: %d\n", len(records))
	fmt.Printf("Distinct species: %d\n", len(bySpecies))
	fmt.Printf("Markers after proximity grouping: %d (%d suppressed)\n",
		len(result.Observations), result.Suppressed)

	fmt.Printf("Top species (%d shown):", min(5, len(sc)))
	for _, s := range sc[:min(5, len(sc))] {
		fmt.Printf(" %s=%d", s.name, s.count)
	}
	fmt.Println()
}
