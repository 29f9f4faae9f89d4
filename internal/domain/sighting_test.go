package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawSighting(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","common_name":"American Robin","taxonomic_order":"Passeriformes","family":"Turdidae","genus":"Turdus","latitude":"40.015","longitude":"-105.2705","observed_at":"2015-05-20","count":"3","rarity":"common"}`)
		result, err := ParseRawSighting(RawSighting{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "Turdus migratorius", result.ScientificName)
		assert.Equal(t, "American Robin", result.CommonName)
		assert.Equal(t, "Passeriformes", result.TaxonomicOrder)
		require.NotNil(t, result.Geo)
		assert.Equal(t, 40.015, result.Geo.Lat)
		assert.Equal(t, -105.2705, result.Geo.Lon)
		assert.Equal(t, time.Date(2015, 5, 20, 0, 0, 0, 0, time.UTC), result.ObservedAt)
		assert.Equal(t, 2015, result.Year)
		assert.Equal(t, 3, result.Count)
		assert.Equal(t, "common", result.Rarity)
	})

	t.Run("blank coordinates keep the record with nil Geo", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","latitude":"","longitude":"","observed_at":"2015-05-20"}`)
		result, err := ParseRawSighting(RawSighting{Value: data})

		require.NoError(t, err)
		assert.Nil(t, result.Geo)
	})

	t.Run("out-of-bounds coordinates are treated as missing", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","latitude":"91.0","longitude":"0","observed_at":"2015-05-20"}`)
		result, err := ParseRawSighting(RawSighting{Value: data})

		require.NoError(t, err)
		assert.Nil(t, result.Geo)
	})

	t.Run("missing count defaults", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","observed_at":"2015-05-20"}`)
		result, err := ParseRawSighting(RawSighting{Value: data})

		require.NoError(t, err)
		assert.Equal(t, DefaultCount, result.Count)
	})

	t.Run("missing scientific name is an error", func(t *testing.T) {
		data := []byte(`{"common_name":"American Robin","observed_at":"2015-05-20"}`)
		_, err := ParseRawSighting(RawSighting{Value: data})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "scientific_name")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawSighting(RawSighting{Value: []byte("{not json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw sighting")
	})

	t.Run("invalid date", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","observed_at":"20th May 2015"}`)
		_, err := ParseRawSighting(RawSighting{Value: data})
		require.Error(t, err)
	})

	t.Run("RFC 3339 timestamp", func(t *testing.T) {
		data := []byte(`{"scientific_name":"Turdus migratorius","observed_at":"2015-05-20T14:30:00Z"}`)
		result, err := ParseRawSighting(RawSighting{Value: data})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2015, 5, 20, 14, 30, 0, 0, time.UTC), result.ObservedAt)
	})
}

func TestParseCountOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected int
	}{
		{"valid", "7", 7},
		{"zero", "0", 0},
		{"blank", "", DefaultCount},
		{"whitespace", "  ", DefaultCount},
		{"negative", "-2", DefaultCount},
		{"garbage", "many", DefaultCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCountOrDefault(tt.in))
		})
	}
}
