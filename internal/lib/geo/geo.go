// Package geo turns free-text addresses into coordinates and ranks
// providers by great-circle distance from a client.
package geo

import (
	"cmp"
	"math"
	"slices"
)

// EarthRadiusKm is the mean Earth radius (IUGG) used by Haversine.
const EarthRadiusKm = 6371.0088

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PointFrom builds a Point from nullable columns. ok is false when either
// coordinate is missing.
func PointFrom(lat, lon *float64) (Point, bool) {
	if lat == nil || lon == nil {
		return Point{}, false
	}
	return Point{Lat: *lat, Lon: *lon}, true
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h a hair above 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Ranked pairs an item with its distance from the ranking origin.
type Ranked[T any] struct {
	Item       T
	DistanceKm float64
}

// RankByDistance orders items by distance from origin, nearest first.
//
// Items for which locate reports no coordinates are dropped. Items at equal
// distance keep their input order. A limit <= 0 returns every ranked item.
func RankByDistance[T any](origin Point, items []T, locate func(T) (Point, bool), limit int) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(items))
	for _, it := range items {
		p, ok := locate(it)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked[T]{Item: it, DistanceKm: Haversine(origin, p)})
	}

	slices.SortStableFunc(ranked, func(a, b Ranked[T]) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
