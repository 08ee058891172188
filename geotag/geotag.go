// Package geotag reads GCJ-02 positions from, and writes them to, the WGS-84
// EXIF GPS tags of image files.
package geotag

import (
	"errors"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/paulmach/orb"
	"log/slog"
	"photo-geotag/coordtrans"
	"photo-geotag/dms"
	"photo-geotag/exifgps"
)

type Tagger struct {
	gateway Gateway
	geodesy Geodesy
	logger  *slog.Logger
}

func New(gateway Gateway, geodesy Geodesy, logger *slog.Logger) *Tagger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tagger{gateway: gateway, geodesy: geodesy, logger: logger}
}

type WriteResult struct {
	FilePath string `json:"file_path"`
	Success  bool   `json:"success"`
}

// ReadCoordinate returns the GCJ-02 position stored in path. It reports false
// if the file cannot be opened or any of the four GPS tags is missing.
func (t *Tagger) ReadCoordinate(path string) (orb.Point, bool) {
	m, err := t.gateway.Open(path)
	if err != nil {
		t.logger.Info("cannot open image metadata", "path", path, "err", err)
		return orb.Point{}, false
	}

	wgs, ok := t.decode(path, m)
	if !ok {
		return orb.Point{}, false
	}

	gcj := t.geodesy.FromWGS84(wgs)
	t.logger.Debug("read coordinate", "path", path, "wgs84", wgs, "gcj02", gcj)
	return gcj, true
}

func (t *Tagger) decode(path string, m Metadata) (orb.Point, bool) {
	lonRef, ok := firstASCII(m, exifgps.TagLongitudeRef)
	if !ok {
		t.logger.Debug("missing gps tag", "path", path, "tag", exifgps.TagLongitudeRef)
		return orb.Point{}, false
	}
	latRef, ok := firstASCII(m, exifgps.TagLatitudeRef)
	if !ok {
		t.logger.Debug("missing gps tag", "path", path, "tag", exifgps.TagLatitudeRef)
		return orb.Point{}, false
	}
	lonDMS, ok := firstRationals(m, exifgps.TagLongitude)
	if !ok {
		t.logger.Debug("missing gps tag", "path", path, "tag", exifgps.TagLongitude)
		return orb.Point{}, false
	}
	latDMS, ok := firstRationals(m, exifgps.TagLatitude)
	if !ok {
		t.logger.Debug("missing gps tag", "path", path, "tag", exifgps.TagLatitude)
		return orb.Point{}, false
	}

	// A malformed triple still decodes as zero; the warning is the only trace.
	lon, err := dms.Parse(lonDMS, lonRef)
	if errors.Is(err, dms.ErrMalformedTriple) {
		t.logger.Warn("malformed gps tag, using 0", "path", path, "tag", exifgps.TagLongitude, "value", lonDMS)
	}
	lat, err := dms.Parse(latDMS, latRef)
	if errors.Is(err, dms.ErrMalformedTriple) {
		t.logger.Warn("malformed gps tag, using 0", "path", path, "tag", exifgps.TagLatitude, "value", latDMS)
	}

	return orb.Point{lon, lat}, true
}

// EncodeTarget converts a GCJ-02 target into the tag values written to files.
func (t *Tagger) EncodeTarget(target orb.Point) TagSet {
	wgs := t.geodesy.ToWGS84(target)
	tags := EncodeTags(wgs)

	drift := coordtrans.DistanceMeters(target, t.geodesy.FromWGS84(tags.Point()))
	t.logger.Debug("encoded target", "gcj02", target, "wgs84", wgs, "drift_m", drift)
	return tags
}

// WriteCoordinates stores target (GCJ-02) in every path. The returned results
// are in the same order as paths; a failing file never stops the batch.
func (t *Tagger) WriteCoordinates(paths []string, target orb.Point) []WriteResult {
	return t.WriteTags(paths, t.EncodeTarget(target))
}

// WriteTags applies an already encoded tag set to every path in order.
func (t *Tagger) WriteTags(paths []string, tags TagSet) []WriteResult {
	t.logger.Info("writing gps tags", "files", len(paths), "wgs84", tags.Point())

	results := make([]WriteResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, WriteResult{
			FilePath: path,
			Success:  t.writeOne(path, tags),
		})
	}

	summary := Summarize(results)
	t.logger.Info("wrote gps tags", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return results
}

func (t *Tagger) writeOne(path string, tags TagSet) bool {
	m, err := t.gateway.Open(path)
	if err != nil {
		t.logger.Warn("cannot open image metadata", "path", path, "err", err)
		return false
	}

	tags.stage(m)

	if err := m.Save(); err != nil {
		t.logger.Warn("cannot save image metadata", "path", path, "err", err)
		return false
	}
	t.logger.Debug("tagged", "path", path)
	return true
}

func firstASCII(m Metadata, tag exifgps.Tag) (string, bool) {
	values := m.ASCII(tag)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func firstRationals(m Metadata, tag exifgps.Tag) ([]exifcommon.Rational, bool) {
	values := m.Rationals(tag)
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}
