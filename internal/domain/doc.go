// Package domain models geotagged bird-observation records and the filter
// specification users build against them.
//
// # Data Source
//
// Observations originate from a curated CSV export of historical sighting
// records (1985-2019), one row per sighting with taxonomy, coordinates,
// observation date, individual count, a rarity category, and opaque asset
// paths for the map UI (species description, image, marker icon, audio
// clip, photo credit). The loader enforces the dataset invariants; this
// package only defines them.
//
// # Dataset Invariants
//
// Year bounds:
//
//	Only records with observation year in [MinYear, MaxYear] enter the
//	working dataset. This is a load-time restriction, not a filter option;
//	the pipeline assumes it already holds.
//
// Counts:
//
//	The individual count defaults to DefaultCount (1) when the source
//	omits it. Counts are never negative.
//
// Coordinates:
//
//	Records with blank or out-of-bounds coordinates are kept (Geo == nil)
//	but are excluded from every distance-dependent stage: the radius
//	filter and both roles of the proximity dedup pass.
//
// # Filter Specification
//
// FilterSpec fields are independently optional; an absent field places no
// restriction. Internally inconsistent specs (inverted year or radius
// bounds, out-of-range center) are rejected with ErrMalformedSpec before
// any filtering runs, so callers can distinguish "invalid filter" from an
// empty result.
package domain
