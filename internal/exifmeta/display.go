package exifmeta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// tiff.Tag.String renders the JSON form of a value ("\"Canon\"", "\"72/1\""), so display
// values are formatted here from the typed accessors instead.

// maxListed caps how many components of a multi-valued tag are printed.
const maxListed = 32

type unitFunc func(x *exif.Exif, value string) string

func suffix(unit string) unitFunc {
	return func(_ *exif.Exif, value string) string {
		return value + " " + unit
	}
}

func resolution(x *exif.Exif, value string) string {
	unit := "inch"
	if t, err := x.Get(exif.ResolutionUnit); err == nil {
		if v, err := t.Int(0); err == nil && v == 3 {
			unit = "cm"
		}
	}
	return value + " pixels per " + unit
}

var units = map[exif.FieldName]unitFunc{
	exif.ImageWidth:            suffix("pixels"),
	exif.ImageLength:           suffix("pixels"),
	exif.PixelXDimension:       suffix("pixels"),
	exif.PixelYDimension:       suffix("pixels"),
	exif.XResolution:           resolution,
	exif.YResolution:           resolution,
	exif.ExposureTime:          suffix("s"),
	exif.FocalLength:           suffix("mm"),
	exif.FocalLengthIn35mmFilm: suffix("mm"),
	exif.ExposureBiasValue:     suffix("EV"),
	exif.SubjectDistance:       suffix("m"),
	exif.GPSAltitude:           suffix("m"),
	exif.FNumber: func(_ *exif.Exif, value string) string {
		return "f/" + value
	},
}

func displayWithUnit(x *exif.Exif, name exif.FieldName, tag *tiff.Tag) string {
	value := display(tag)
	if fn, ok := units[name]; ok && tag.Count == 1 {
		return fn(x, value)
	}
	return value
}

func display(tag *tiff.Tag) string {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		return strings.TrimRight(s, "\x00 ")
	case tiff.IntVal:
		return list(tag, func(i int) string {
			v, err := tag.Int(i)
			if err != nil {
				return "?"
			}
			return strconv.Itoa(v)
		})
	case tiff.RatVal:
		return list(tag, func(i int) string {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return "?"
			}
			return rational(num, den)
		})
	case tiff.FloatVal:
		return list(tag, func(i int) string {
			v, err := tag.Float(i)
			if err != nil {
				return "?"
			}
			return strconv.FormatFloat(v, 'g', -1, 64)
		})
	default:
		return undefined(tag.Val)
	}
}

func list(tag *tiff.Tag, item func(i int) string) string {
	n := int(tag.Count)
	shown := min(n, maxListed)
	parts := make([]string, 0, shown+1)
	for i := range shown {
		parts = append(parts, item(i))
	}
	if n > shown {
		parts = append(parts, fmt.Sprintf("... (%d more)", n-shown))
	}
	return strings.Join(parts, ", ")
}

func rational(num, den int64) string {
	switch {
	case den == 0:
		return strconv.FormatInt(num, 10) + "/0"
	case den == 1:
		return strconv.FormatInt(num, 10)
	case num%den == 0:
		return strconv.FormatInt(num/den, 10)
	case num == 1:
		return "1/" + strconv.FormatInt(den, 10)
	default:
		return strconv.FormatFloat(float64(num)/float64(den), 'g', 4, 64)
	}
}

// undefined prints printable byte runs (ExifVersion "0230") as text and anything else as
// hex or a byte count.
func undefined(b []byte) string {
	trimmed := strings.TrimRight(string(b), "\x00")
	if trimmed != "" && printable(trimmed) {
		return trimmed
	}
	if len(b) <= 16 {
		parts := make([]string, len(b))
		for i, c := range b {
			parts[i] = fmt.Sprintf("%02x", c)
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%d bytes undefined data", len(b))
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
