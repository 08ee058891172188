// Package dms converts decimal degrees to and from the degree/minute/second
// rational triples EXIF stores in GPSLatitude and GPSLongitude.
package dms

import (
	"errors"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"math"
	"strings"
)

// SecondsPrecision is the denominator used for the seconds component, keeping
// four decimal places of an arc-second.
const SecondsPrecision = 10_000

var ErrMalformedTriple = errors.New("malformed degree/minute/second triple")

type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "longitude"
	}
	return "latitude"
}

// Ref is the hemisphere letter stored in GPSLatitudeRef or GPSLongitudeRef.
type Ref string

const (
	North Ref = "N"
	South Ref = "S"
	East  Ref = "E"
	West  Ref = "W"
)

// Triple is degrees, minutes and seconds in that order.
type Triple [3]exifcommon.Rational

// Slice returns the triple in the form the EXIF encoder expects.
func (t Triple) Slice() []exifcommon.Rational {
	return []exifcommon.Rational{t[0], t[1], t[2]}
}

// Hemisphere returns the reference letter for value on axis together with its
// absolute value. Zero is north or east.
func Hemisphere(value float64, axis Axis) (Ref, float64) {
	switch {
	case value >= 0 && axis == Longitude:
		return East, value
	case value < 0 && axis == Longitude:
		return West, -value
	case value >= 0:
		return North, value
	default:
		return South, -value
	}
}

// FromDecimal splits a decimal degree value into its hemisphere and triple.
// Degrees and minutes are truncated; seconds keep the remainder at
// SecondsPrecision.
func FromDecimal(value float64, axis Axis) (Ref, Triple) {
	ref, abs := Hemisphere(value, axis)

	degrees := math.Trunc(abs)
	remainder := (abs - degrees) * 60
	minutes := math.Trunc(remainder)
	seconds := (remainder - minutes) * 60

	return ref, Triple{
		{Numerator: uint32(degrees), Denominator: 1},
		{Numerator: uint32(minutes), Denominator: 1},
		secondsRational(seconds),
	}
}

func secondsRational(seconds float64) exifcommon.Rational {
	scaled := math.Round(seconds * SecondsPrecision)
	return exifcommon.Rational{Numerator: uint32(scaled), Denominator: SecondsPrecision}
}

// Parse converts a triple and its reference letter back to decimal degrees.
// West and south (in either case) are negative; any other reference is
// treated as positive.
func Parse(triple []exifcommon.Rational, ref string) (float64, error) {
	if len(triple) < 3 {
		return 0, ErrMalformedTriple
	}
	for _, r := range triple[:3] {
		if r.Denominator == 0 {
			return 0, ErrMalformedTriple
		}
	}

	degrees := float64(triple[0].Numerator) / float64(triple[0].Denominator)
	minutes := float64(triple[1].Numerator) / float64(triple[1].Denominator)
	seconds := float64(triple[2].Numerator) / float64(triple[2].Denominator)

	value := degrees + minutes/60 + seconds/3600
	if strings.EqualFold(ref, string(West)) || strings.EqualFold(ref, string(South)) {
		value = -value
	}
	return value, nil
}

// ToDecimal is Parse with a malformed triple reported as zero.
func ToDecimal(triple []exifcommon.Rational, ref string) float64 {
	value, err := Parse(triple, ref)
	if err != nil {
		return 0
	}
	return value
}
