// Package coordtrans converts points between WGS-84, the datum GPS receivers
// and EXIF use, and GCJ-02, the offset datum required for maps of mainland China.
package coordtrans

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"math"
)

// The Earth's mean radius in kilometers
const earthRadiusKm = 6371.01

// Transform converts between WGS-84 and GCJ-02. The zero value uses the
// single-step inverse.
type Transform struct {
	// Exact selects the iterative GCJ-02 to WGS-84 inverse.
	Exact bool
}

func (t Transform) ToWGS84(p orb.Point) orb.Point {
	if t.Exact {
		return GCJ02ToWGS84Exact(p)
	}
	return GCJ02ToWGS84(p)
}

func (t Transform) FromWGS84(p orb.Point) orb.Point {
	return WGS84ToGCJ02(p)
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(a, b orb.Point) float64 {
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat(), a.Lon()))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat(), b.Lon()))
	angle := pa.Distance(pb)
	return earthRadiusKm * float64(angle) * 1000
}

// Round rounds both axes to the given number of decimal places.
func Round(p orb.Point, places int) orb.Point {
	scale := math.Pow(10, float64(places))
	return orb.Point{math.Round(p.Lon()*scale) / scale, math.Round(p.Lat()*scale) / scale}
}
