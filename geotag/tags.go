package geotag

import (
	"github.com/paulmach/orb"
	"photo-geotag/dms"
	"photo-geotag/exifgps"
)

// TagSet is the four GPS tag values for one WGS-84 position.
type TagSet struct {
	LongitudeRef dms.Ref
	Longitude    dms.Triple
	LatitudeRef  dms.Ref
	Latitude     dms.Triple
}

func EncodeTags(wgs orb.Point) TagSet {
	lonRef, lon := dms.FromDecimal(wgs.Lon(), dms.Longitude)
	latRef, lat := dms.FromDecimal(wgs.Lat(), dms.Latitude)
	return TagSet{
		LongitudeRef: lonRef,
		Longitude:    lon,
		LatitudeRef:  latRef,
		Latitude:     lat,
	}
}

// Point decodes the tag set back into WGS-84.
func (ts TagSet) Point() orb.Point {
	return orb.Point{
		dms.ToDecimal(ts.Longitude.Slice(), string(ts.LongitudeRef)),
		dms.ToDecimal(ts.Latitude.Slice(), string(ts.LatitudeRef)),
	}
}

func (ts TagSet) stage(m Metadata) {
	m.SetASCII(exifgps.TagLongitudeRef, string(ts.LongitudeRef))
	m.SetRationals(exifgps.TagLongitude, ts.Longitude.Slice())
	m.SetASCII(exifgps.TagLatitudeRef, string(ts.LatitudeRef))
	m.SetRationals(exifgps.TagLatitude, ts.Latitude.Slice())
}
