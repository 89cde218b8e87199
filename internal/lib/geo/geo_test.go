package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	santiago   = Point{Lat: -33.4489, Lon: -70.6693}
	valparaiso = Point{Lat: -33.0472, Lon: -71.6127}
	concepcion = Point{Lat: -36.8201, Lon: -73.0444}
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{"same point", santiago, santiago, 0, 1e-9},
		{"santiago to valparaiso", santiago, valparaiso, 98.45, 0.5},
		{"santiago to concepcion", santiago, concepcion, 432.6, 1},
		{"one degree of latitude on a meridian", Point{0, 0}, Point{1, 0}, 111.195, 0.01},
		{"antipodes", Point{0, 0}, Point{0, 180}, EarthRadiusKm * 3.141592653589793, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.a, tt.b), tt.tol)
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	assert.InDelta(t, Haversine(santiago, concepcion), Haversine(concepcion, santiago), 1e-9)
}

func TestPointFrom(t *testing.T) {
	lat, lon := -33.0, -70.0

	_, ok := PointFrom(nil, &lon)
	assert.False(t, ok)
	_, ok = PointFrom(&lat, nil)
	assert.False(t, ok)

	p, ok := PointFrom(&lat, &lon)
	require.True(t, ok)
	assert.Equal(t, Point{Lat: -33, Lon: -70}, p)

	zero := 0.0
	_, ok = PointFrom(&zero, &zero)
	assert.True(t, ok, "0,0 is a valid coordinate")
}

type place struct {
	name string
	at   *Point
}

func locatePlace(p place) (Point, bool) {
	if p.at == nil {
		return Point{}, false
	}
	return *p.at, true
}

func TestRankByDistance(t *testing.T) {
	items := []place{
		{"concepcion", &concepcion},
		{"unknown", nil},
		{"valparaiso", &valparaiso},
		{"santiago", &santiago},
	}

	ranked := RankByDistance(santiago, items, locatePlace, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "santiago", ranked[0].Item.name)
	assert.Equal(t, "valparaiso", ranked[1].Item.name)
	assert.Equal(t, "concepcion", ranked[2].Item.name)
	assert.Zero(t, ranked[0].DistanceKm)

	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
}

func TestRankByDistance_LimitAndStability(t *testing.T) {
	items := []place{
		{"a", &valparaiso},
		{"b", &valparaiso},
		{"c", &santiago},
		{"d", &valparaiso},
	}

	ranked := RankByDistance(santiago, items, locatePlace, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].Item.name)
	assert.Equal(t, "a", ranked[1].Item.name)
	assert.Equal(t, "b", ranked[2].Item.name)
}

func TestRankByDistance_Empty(t *testing.T) {
	assert.Empty(t, RankByDistance(santiago, nil, locatePlace, 20))
	assert.Empty(t, RankByDistance(santiago, []place{{"x", nil}}, locatePlace, 20))
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 12.35, RoundKm(12.3456))
	assert.Equal(t, 0.0, RoundKm(0.0049))
	assert.Equal(t, 98.5, RoundKm(98.499999))
}
