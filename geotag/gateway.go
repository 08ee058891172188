package geotag

import (
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/paulmach/orb"
	"photo-geotag/exifgps"
)

// Metadata is the GPS tag store of one opened image.
type Metadata interface {
	Rationals(tag exifgps.Tag) [][]exifcommon.Rational
	ASCII(tag exifgps.Tag) []string
	SetRationals(tag exifgps.Tag, value []exifcommon.Rational)
	SetASCII(tag exifgps.Tag, value string)
	Save() error
}

// Gateway opens the metadata of an image file.
type Gateway interface {
	Open(path string) (Metadata, error)
}

type GatewayFunc func(path string) (Metadata, error)

func (f GatewayFunc) Open(path string) (Metadata, error) {
	return f(path)
}

// ExifGateway reads and writes JPEG EXIF blocks on the local filesystem.
var ExifGateway Gateway = GatewayFunc(func(path string) (Metadata, error) {
	f, err := exifgps.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
})

// Geodesy converts between the datum stored in files (WGS-84) and the datum
// callers work in (GCJ-02).
type Geodesy interface {
	ToWGS84(p orb.Point) orb.Point
	FromWGS84(p orb.Point) orb.Point
}
