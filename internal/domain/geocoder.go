package domain

import "context"

// GeocodeCandidate is one resolved location for a free-text search query.
type GeocodeCandidate struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves free-text queries into candidate map locations. The UI
// feeds a chosen candidate back into the filter spec as the radius center.
type Geocoder interface {
	// Search returns up to limit candidates for the query, best match first.
	Search(ctx context.Context, query string, limit int) ([]GeocodeCandidate, error)
}
