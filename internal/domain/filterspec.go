package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedSpec marks filter specifications rejected before any filtering
// runs. The HTTP layer uses errors.Is against this sentinel to distinguish
// "invalid filter" (400) from a legitimately empty result (200).
var ErrMalformedSpec = errors.New("malformed filter spec")

// YearRange is an inclusive observation-year window.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// RadiusKM is an inclusive distance window in kilometers around a center point.
type RadiusKM struct {
	Min float64 `json:"min_km"`
	Max float64 `json:"max_km"`
}

// FilterSpec is the structured set of optional user-chosen constraints
// narrowing the observation set. Every field is independently optional; a
// nil/empty field places no restriction from that criterion.
//
// Radius is only applied when Center is also set. A Center with no Radius
// has no effect; a Radius with no Center is silently inert rather than an
// error, so a UI can keep a stale radius selection around while the user
// picks a new map point.
type FilterSpec struct {
	Species         []string   `json:"species,omitempty"`
	TaxonomicOrders []string   `json:"taxonomic_orders,omitempty"`
	Rarities        []string   `json:"rarities,omitempty"`
	Years           *YearRange `json:"years,omitempty"`
	Radius          *RadiusKM  `json:"radius,omitempty"`
	Center          *Geo       `json:"center,omitempty"`
}

// Validate rejects internally inconsistent specs. It never inspects the
// dataset; only the spec itself.
func (s FilterSpec) Validate() error {
	if s.Years != nil && s.Years.Min > s.Years.Max {
		return fmt.Errorf("%w: year range min %d > max %d", ErrMalformedSpec, s.Years.Min, s.Years.Max)
	}
	if s.Radius != nil {
		if s.Radius.Min > s.Radius.Max {
			return fmt.Errorf("%w: radius min %g km > max %g km", ErrMalformedSpec, s.Radius.Min, s.Radius.Max)
		}
		if s.Radius.Min < 0 {
			return fmt.Errorf("%w: negative radius min %g km", ErrMalformedSpec, s.Radius.Min)
		}
	}
	if s.Center != nil {
		if s.Center.Lat < -90 || s.Center.Lat > 90 {
			return fmt.Errorf("%w: center latitude %g out of range", ErrMalformedSpec, s.Center.Lat)
		}
		if s.Center.Lon < -180 || s.Center.Lon > 180 {
			return fmt.Errorf("%w: center longitude %g out of range", ErrMalformedSpec, s.Center.Lon)
		}
	}
	return nil
}

// HasRadius reports whether the spec activates the radius stage: both a
// radius window and a center point must be present.
func (s FilterSpec) HasRadius() bool {
	return s.Radius != nil && s.Center != nil
}
