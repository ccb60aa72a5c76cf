// Package geo implements great-circle distance and radius filtering.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used for all distances.
const EarthRadiusKm = 6371.009

// DefaultRadiusKm is the reference radius for both nearby display and
// read/write eligibility.
const DefaultRadiusKm = 10.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locatable is anything with a single map coordinate.
type Locatable interface {
	Coordinates() Point
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// WithinRadius returns the items whose coordinate lies within radiusKm of
// origin, boundary included, in input order.
func WithinRadius[T Locatable](origin Point, radiusKm float64, items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Distance(origin, it.Coordinates()) <= radiusKm {
			out = append(out, it)
		}
	}
	return out
}

// Valid reports whether p is a usable coordinate.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Coordinates returns p itself, so Point satisfies Locatable.
func (p Point) Coordinates() Point { return p }

func radians(deg float64) float64 { return deg * math.Pi / 180 }
