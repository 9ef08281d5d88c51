// Package exifmeta adapts github.com/rwcarlsen/goexif to the small read-only view the
// handle protocol needs: the TIFF byte order and a stable, ordered list of fields with
// display values.
package exifmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

var ErrDecode = errors.New("exifmeta: decode failed")

// IFDPrimary is the index reported for IFD0 and the sub-IFDs hanging off it.
const IFDPrimary = 0

// Field is one decoded attribute.
type Field struct {
	IFD   int
	Tag   string
	Value string
}

// Key returns the "{ifd}.{tag}" identifier handed across the boundary.
func (f Field) Key() string {
	return fmt.Sprintf("%d.%s", f.IFD, f.Tag)
}

// Metadata is the decoded attribute set. It is immutable after Decode returns.
type Metadata struct {
	littleEndian bool
	fields       []Field
}

// LittleEndian reports whether the TIFF structure is stored in Intel byte order.
func (m *Metadata) LittleEndian() bool {
	return m.littleEndian
}

// Fields returns the decoded fields ordered by IFD index, then tag name.
func (m *Metadata) Fields() []Field {
	return slices.Clone(m.fields)
}

// Options configures a Decoder.
type Options struct {
	// MakerNotes registers the Canon and Nikon maker note parsers. Registration is
	// process-wide and cannot be undone.
	MakerNotes bool
}

type Decoder struct {
	opts Options
}

func NewDecoder(opts Options) *Decoder {
	if opts.MakerNotes {
		registerMakerNotes()
	}
	return &Decoder{opts: opts}
}

var makerNotesOnce sync.Once

func registerMakerNotes() {
	makerNotesOnce.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})
}

var defaultDecoder = NewDecoder(Options{})

// Decode parses data with the default decoder.
func Decode(data []byte) (*Metadata, error) {
	return defaultDecoder.Decode(data)
}

// Decode parses a JPEG or TIFF stream. Errors that goexif marks as
// non-critical (a broken sub-IFD or maker note) still yield Metadata.
func (d *Decoder) Decode(data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if x.Tiff == nil {
		return nil, fmt.Errorf("%w: missing tiff structure", ErrDecode)
	}
	return fromExif(x)
}

func fromExif(x *exif.Exif) (*Metadata, error) {
	ifdOf := make(map[*tiff.Tag]int)
	for i, dir := range x.Tiff.Dirs {
		for _, t := range dir.Tags {
			ifdOf[t] = i
		}
	}

	var fields []Field
	err := x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		ifd, ok := ifdOf[tag]
		if !ok {
			// Exif, GPS and Interop sub-IFDs hang off IFD0.
			ifd = IFDPrimary
		}
		fields = append(fields, Field{
			IFD:   ifd,
			Tag:   string(name),
			Value: displayWithUnit(x, name, tag),
		})
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	slices.SortFunc(fields, func(a, b Field) int {
		if a.IFD != b.IFD {
			return a.IFD - b.IFD
		}
		return strings.Compare(a.Tag, b.Tag)
	})

	return &Metadata{
		littleEndian: x.Tiff.Order == binary.LittleEndian,
		fields:       fields,
	}, nil
}

type walkFunc func(name exif.FieldName, tag *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return f(name, tag)
}
