package http

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"bird-map-service/internal/domain"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 10
)

// observationsResponse is the body for a successful filter call. An empty
// Observations list with status 200 means "no matches", distinct from the
// 400 a malformed spec produces.
type observationsResponse struct {
	Count         int                  `json:"count"`
	RadiusApplied bool                 `json:"radius_applied"`
	FilteredAt    time.Time            `json:"filtered_at"`
	Observations  []domain.Observation `json:"observations"`
}

type speciesEntry struct {
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	Observations   int    `json:"observations"`
}

type searchResponse struct {
	Candidates []domain.GeocodeCandidate `json:"candidates"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	spec, err := specFromQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.filterer.Filter(s.data.Snapshot(), spec)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedSpec) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("filter failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, observationsResponse{
		Count:         len(result.Observations),
		RadiusApplied: result.RadiusApplied,
		FilteredAt:    result.FilteredAt,
		Observations:  result.Observations,
	})
}

func (s *Server) handleSpecies(w http.ResponseWriter, _ *http.Request) {
	counts := make(map[string]*speciesEntry)
	for _, o := range s.data.Snapshot() {
		e, ok := counts[o.ScientificName]
		if !ok {
			e = &speciesEntry{CommonName: o.CommonName, ScientificName: o.ScientificName}
			counts[o.ScientificName] = e
		}
		e.Observations++
	}

	entries := make([]speciesEntry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CommonName < entries[j].CommonName
	})

	writeJSON(w, http.StatusOK, map[string]any{"species": entries})
}

// handleSearch proxies the search box to the geocoding provider. Provider
// failures and a disabled geocoder both answer with an empty candidate
// list; the search box degrades, the map keeps working.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxSearchLimit)
	}

	if s.geocoder == nil {
		writeJSON(w, http.StatusOK, searchResponse{Candidates: []domain.GeocodeCandidate{}})
		return
	}

	candidates, err := s.geocoder.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Warn("geocode search failed", "query", query, "error", err)
		writeJSON(w, http.StatusOK, searchResponse{Candidates: []domain.GeocodeCandidate{}})
		return
	}
	if candidates == nil {
		candidates = []domain.GeocodeCandidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Candidates: candidates})
}

// specFromQuery builds a FilterSpec from URL query parameters. Repeatable
// params (species, order, rarity) become membership sets; paired params
// (year_min/year_max, lat/lon) must arrive together. Internal consistency
// of the resulting spec is the pipeline's concern, not ours.
func specFromQuery(q url.Values) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Species:         q["species"],
		TaxonomicOrders: q["order"],
		Rarities:        q["rarity"],
	}

	yearMin, hasYearMin, err := intParam(q, "year_min")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	yearMax, hasYearMax, err := intParam(q, "year_max")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	if hasYearMin != hasYearMax {
		return domain.FilterSpec{}, errors.New("year_min and year_max must be provided together")
	}
	if hasYearMin {
		spec.Years = &domain.YearRange{Min: yearMin, Max: yearMax}
	}

	lat, hasLat, err := floatParam(q, "lat")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	lon, hasLon, err := floatParam(q, "lon")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	if hasLat != hasLon {
		return domain.FilterSpec{}, errors.New("lat and lon must be provided together")
	}
	if hasLat {
		spec.Center = &domain.Geo{Lat: lat, Lon: lon}
	}

	minKM, hasMinKM, err := floatParam(q, "min_km")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	maxKM, hasMaxKM, err := floatParam(q, "max_km")
	if err != nil {
		return domain.FilterSpec{}, err
	}
	if hasMinKM && !hasMaxKM {
		return domain.FilterSpec{}, errors.New("min_km requires max_km")
	}
	if hasMaxKM {
		spec.Radius = &domain.RadiusKM{Min: minKM, Max: maxKM}
	}

	return spec, nil
}

func intParam(q url.Values, name string) (int, bool, error) {
	v := q.Get(name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, errors.New("invalid " + name)
	}
	return n, true, nil
}

func floatParam(q url.Values, name string) (float64, bool, error) {
	v := q.Get(name)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, errors.New("invalid " + name)
	}
	return f, true, nil
}
