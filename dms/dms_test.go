package dms

import (
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// One seconds quantum, in degrees
const roundTripTolerance = 1.0 / SecondsPrecision / 3600

func TestHemisphere(t *testing.T) {
	table := []struct {
		value float64
		axis  Axis
		ref   Ref
	}{
		{5.0, Longitude, East},
		{-5.0, Longitude, West},
		{5.0, Latitude, North},
		{-5.0, Latitude, South},
		{0, Longitude, East},
		{0, Latitude, North},
	}
	for _, tt := range table {
		ref, _ := FromDecimal(tt.value, tt.axis)
		assert.Equal(t, tt.ref, ref, "%v %s", tt.value, tt.axis)
	}
}

func TestFromDecimal(t *testing.T) {
	ref, triple := FromDecimal(-40.5, Latitude)
	assert.Equal(t, South, ref)
	assert.Equal(t, Triple{
		{Numerator: 40, Denominator: 1},
		{Numerator: 30, Denominator: 1},
		{Numerator: 0, Denominator: SecondsPrecision},
	}, triple)

	ref, triple = FromDecimal(116.397128, Longitude)
	assert.Equal(t, East, ref)
	assert.Equal(t, uint32(116), triple[0].Numerator)
	assert.Equal(t, uint32(23), triple[1].Numerator)
	// 0.397128° = 23' 49.6608"
	assert.Equal(t, exifcommon.Rational{Numerator: 496608, Denominator: SecondsPrecision}, triple[2])
}

func TestSignApplication(t *testing.T) {
	triple := []exifcommon.Rational{{Numerator: 40, Denominator: 1}, {Numerator: 30, Denominator: 1}, {Numerator: 0, Denominator: 10000}}
	assert.Equal(t, -40.5, ToDecimal(triple, "S"))
	assert.Equal(t, 40.5, ToDecimal(triple, "N"))
	assert.Equal(t, -40.5, ToDecimal(triple, "w"))
	assert.Equal(t, 40.5, ToDecimal(triple, "e"))
	assert.Equal(t, 40.5, ToDecimal(triple, ""))
}

func TestMalformedTriple(t *testing.T) {
	assert.Equal(t, 0.0, ToDecimal(nil, "N"))
	assert.Equal(t, 0.0, ToDecimal([]exifcommon.Rational{}, "S"))
	assert.Equal(t, 0.0, ToDecimal([]exifcommon.Rational{{Numerator: 40, Denominator: 1}, {Numerator: 30, Denominator: 1}}, "E"))

	_, err := Parse([]exifcommon.Rational{{Numerator: 40, Denominator: 1}}, "N")
	assert.ErrorIs(t, err, ErrMalformedTriple)

	_, err = Parse([]exifcommon.Rational{{Numerator: 40, Denominator: 1}, {Numerator: 30, Denominator: 0}, {Numerator: 0, Denominator: 1}}, "N")
	assert.ErrorIs(t, err, ErrMalformedTriple)
}

func TestParseDistinguishesZero(t *testing.T) {
	value, err := Parse([]exifcommon.Rational{{Numerator: 0, Denominator: 1}, {Numerator: 0, Denominator: 1}, {Numerator: 0, Denominator: 10000}}, "N")
	require.NoError(t, err)
	assert.Equal(t, 0.0, value)
}

func TestRoundTrip(t *testing.T) {
	values := []float64{
		0, 1e-9, 0.5, 1, 12.3456789, 39.916527, 45.999999999, 89.9999999, 90,
		116.397128, 121.473701, 179.9999999, 180,
	}
	for _, v := range values {
		for _, sign := range []float64{1, -1} {
			d := v * sign
			for _, axis := range []Axis{Latitude, Longitude} {
				if axis == Latitude && v > 90 {
					continue
				}
				ref, triple := FromDecimal(d, axis)
				got := ToDecimal(triple.Slice(), string(ref))
				assert.InDelta(t, d, got, roundTripTolerance, "%v %s", d, axis)
			}
		}
	}
}

func TestRoundTripSweep(t *testing.T) {
	for i := 0; i <= 3600; i++ {
		d := -180 + float64(i)*0.1000003
		ref, triple := FromDecimal(d, Longitude)
		assert.InDelta(t, d, ToDecimal(triple.Slice(), string(ref)), roundTripTolerance)
	}
}

func TestDegreesAndMinutesAreIntegers(t *testing.T) {
	_, triple := FromDecimal(31.230416, Latitude)
	assert.Equal(t, uint32(1), triple[0].Denominator)
	assert.Equal(t, uint32(1), triple[1].Denominator)
	assert.Equal(t, uint32(SecondsPrecision), triple[2].Denominator)
	assert.Less(t, triple[1].Numerator, uint32(60))
}
