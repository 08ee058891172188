package coordtrans

import (
	"github.com/paulmach/orb"
	"math"
)

// Krasovsky 1940 ellipsoid, which the GCJ-02 obfuscation is defined against
const (
	semiMajorAxis  = 6378245.0
	eccentricitySq = 0.00669342162296594323
)

const (
	exactTolerance     = 1e-9
	exactMaxIterations = 30
)

// OutOfChina reports whether p lies outside the box where GCJ-02 differs from WGS-84.
func OutOfChina(p orb.Point) bool {
	lon, lat := p.Lon(), p.Lat()
	return lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271
}

// WGS84ToGCJ02 converts a WGS-84 point into GCJ-02.
func WGS84ToGCJ02(p orb.Point) orb.Point {
	if OutOfChina(p) {
		return p
	}
	dLon, dLat := offset(p.Lon(), p.Lat())
	return orb.Point{p.Lon() + dLon, p.Lat() + dLat}
}

// GCJ02ToWGS84 converts a GCJ-02 point into WGS-84 by subtracting the offset
// evaluated at the GCJ-02 point. The result is off by up to a few metres; use
// GCJ02ToWGS84Exact when that matters.
func GCJ02ToWGS84(p orb.Point) orb.Point {
	if OutOfChina(p) {
		return p
	}
	dLon, dLat := offset(p.Lon(), p.Lat())
	return orb.Point{p.Lon() - dLon, p.Lat() - dLat}
}

// GCJ02ToWGS84Exact inverts WGS84ToGCJ02 iteratively.
func GCJ02ToWGS84Exact(p orb.Point) orb.Point {
	if OutOfChina(p) {
		return p
	}

	guess := GCJ02ToWGS84(p)
	for i := 0; i < exactMaxIterations; i++ {
		fwd := WGS84ToGCJ02(guess)
		dLon := fwd.Lon() - p.Lon()
		dLat := fwd.Lat() - p.Lat()
		if math.Abs(dLon) < exactTolerance && math.Abs(dLat) < exactTolerance {
			break
		}
		guess = orb.Point{guess.Lon() - dLon, guess.Lat() - dLat}
	}
	return guess
}

func offset(lon, lat float64) (dLon, dLat float64) {
	dLat = transformLat(lon-105.0, lat-35.0)
	dLon = transformLon(lon-105.0, lat-35.0)

	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - eccentricitySq*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccentricitySq)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return dLon, dLat
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
