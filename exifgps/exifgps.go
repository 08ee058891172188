// Package exifgps reads and writes the GPS position tags of the EXIF block of
// a JPEG or PNG file.
package exifgps

import (
	"bytes"
	"errors"
	"fmt"
	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
	"io"
	"os"
	"path/filepath"
)

// Tag names a tag in the GPS IFD.
type Tag string

const (
	TagLatitudeRef  Tag = "GPSLatitudeRef"
	TagLatitude     Tag = "GPSLatitude"
	TagLongitudeRef Tag = "GPSLongitudeRef"
	TagLongitude    Tag = "GPSLongitude"
)

// Write order for staged tags
var tagOrder = []Tag{TagLatitudeRef, TagLatitude, TagLongitudeRef, TagLongitude}

const gpsIfdPath = "IFD/GPSInfo"

var (
	ErrUnreadable = errors.New("unreadable image metadata")
	ErrPersist    = errors.New("failed to persist image metadata")
)

// ProcessingSoftware is recorded in IFD0 when a file had no EXIF block before.
var ProcessingSoftware = "photo-geotag"

// mediaContext is the part of a parsed JPEG segment list or PNG chunk slice
// that carries EXIF.
type mediaContext interface {
	Exif() (*exif.Ifd, []byte, error)
	ConstructExifBuilder() (*exif.IfdBuilder, error)
	SetExif(ib *exif.IfdBuilder) error
}

// File is the EXIF GPS view of one image. Setters stage values in memory;
// nothing touches the disk until Save.
type File struct {
	path    string
	mode    os.FileMode
	mc      mediaContext
	hasExif bool
	gps     map[Tag][]any
	staged  map[Tag]any
}

// Open loads path. A JPEG or PNG without an EXIF block opens with no tags.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnreadable, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	mc, err := parseImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	f := &File{
		path:   path,
		mode:   info.Mode().Perm(),
		mc:     mc,
		gps:    make(map[Tag][]any),
		staged: make(map[Tag]any),
	}

	if !hasExifBlock(mc) {
		return f, nil
	}
	f.hasExif = true

	_, rawExif, err := mc.Exif()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read exif: %w", ErrUnreadable, path, err)
	}

	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse exif: %w", ErrUnreadable, path, err)
	}
	for _, t := range tags {
		if t.IfdPath != gpsIfdPath {
			continue
		}
		tag := Tag(t.TagName)
		f.gps[tag] = append(f.gps[tag], t.Value)
	}

	return f, nil
}

func parseImage(data []byte) (mediaContext, error) {
	if jmp := jpegstructure.NewJpegMediaParser(); jmp.LooksLikeFormat(data) {
		intfc, err := jmp.ParseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse jpeg: %w", err)
		}
		sl, ok := intfc.(*jpegstructure.SegmentList)
		if !ok {
			return nil, fmt.Errorf("unexpected media context %T", intfc)
		}
		return sl, nil
	}

	if pmp := pngstructure.NewPngMediaParser(); pmp.LooksLikeFormat(data) {
		intfc, err := pmp.ParseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse png: %w", err)
		}
		cs, ok := intfc.(*pngstructure.ChunkSlice)
		if !ok {
			return nil, fmt.Errorf("unexpected media context %T", intfc)
		}
		return cs, nil
	}

	return nil, errors.New("not a jpeg or png")
}

func hasExifBlock(mc mediaContext) bool {
	switch m := mc.(type) {
	case *jpegstructure.SegmentList:
		_, _, err := m.FindExif()
		return err == nil
	case *pngstructure.ChunkSlice:
		_, err := m.FindExif()
		return err == nil
	default:
		return false
	}
}

func encode(mc mediaContext, w io.Writer) error {
	switch m := mc.(type) {
	case *jpegstructure.SegmentList:
		return m.Write(w)
	case *pngstructure.ChunkSlice:
		return m.WriteTo(w)
	default:
		return fmt.Errorf("unexpected media context %T", mc)
	}
}

func (f *File) Path() string {
	return f.path
}

// Rationals returns every rational-array value of tag, staged value first.
func (f *File) Rationals(tag Tag) [][]exifcommon.Rational {
	if v, ok := f.staged[tag].([]exifcommon.Rational); ok {
		return [][]exifcommon.Rational{v}
	}

	var out [][]exifcommon.Rational
	for _, v := range f.gps[tag] {
		if r, ok := v.([]exifcommon.Rational); ok {
			out = append(out, r)
		}
	}
	return out
}

// ASCII returns every string value of tag, staged value first.
func (f *File) ASCII(tag Tag) []string {
	if v, ok := f.staged[tag].(string); ok {
		return []string{v}
	}

	var out []string
	for _, v := range f.gps[tag] {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *File) SetRationals(tag Tag, value []exifcommon.Rational) {
	f.staged[tag] = append([]exifcommon.Rational(nil), value...)
}

func (f *File) SetASCII(tag Tag, value string) {
	f.staged[tag] = value
}

// Save writes the staged tags into the GPS IFD and replaces the file on disk.
func (f *File) Save() error {
	if len(f.staged) == 0 {
		return nil
	}

	rootIb, err := f.rootBuilder()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, f.path, err)
	}

	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, gpsIfdPath)
	if err != nil {
		return fmt.Errorf("%w: %s: get or create gps ifd: %w", ErrPersist, f.path, err)
	}

	for _, tag := range stagedOrder(f.staged) {
		if err := gpsIb.SetStandardWithName(string(tag), f.staged[tag]); err != nil {
			return fmt.Errorf("%w: %s: set %s: %w", ErrPersist, f.path, tag, err)
		}
	}

	if err := f.mc.SetExif(rootIb); err != nil {
		return fmt.Errorf("%w: %s: set exif: %w", ErrPersist, f.path, err)
	}

	var b bytes.Buffer
	if err := encode(f.mc, &b); err != nil {
		return fmt.Errorf("%w: %s: encode image: %w", ErrPersist, f.path, err)
	}

	if err := replaceFile(f.path, b.Bytes(), f.mode); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	for tag, v := range f.staged {
		f.gps[tag] = []any{v}
	}
	f.staged = make(map[Tag]any)
	f.hasExif = true
	return nil
}

func (f *File) rootBuilder() (*exif.IfdBuilder, error) {
	if f.hasExif {
		rootIb, err := f.mc.ConstructExifBuilder()
		if err != nil {
			return nil, fmt.Errorf("construct exif builder: %w", err)
		}
		return rootIb, nil
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("create ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()
	if err := exif.LoadStandardTags(ti); err != nil {
		return nil, fmt.Errorf("load standard tags: %w", err)
	}

	rootIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := rootIb.AddStandardWithName("ProcessingSoftware", ProcessingSoftware); err != nil {
		return nil, fmt.Errorf("add ProcessingSoftware: %w", err)
	}
	return rootIb, nil
}

func stagedOrder(staged map[Tag]any) []Tag {
	var out []Tag
	for _, tag := range tagOrder {
		if _, ok := staged[tag]; ok {
			out = append(out, tag)
		}
	}
	for tag := range staged {
		known := false
		for _, k := range tagOrder {
			if k == tag {
				known = true
				break
			}
		}
		if !known {
			out = append(out, tag)
		}
	}
	return out
}

// replaceFile writes data to a temp file beside path, then renames it over path.
func replaceFile(path string, data []byte, mode os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename over %s: %w", path, err)
	}
	return nil
}
