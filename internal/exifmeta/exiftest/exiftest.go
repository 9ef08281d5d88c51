// Package exiftest builds small synthetic TIFF and JPEG inputs for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
)

// TIFF field types.
const (
	TypeASCII    uint16 = 2
	TypeShort    uint16 = 3
	TypeLong     uint16 = 4
	TypeRational uint16 = 5
)

// Common tag ids.
const (
	TagImageWidth     uint16 = 0x0100
	TagImageLength    uint16 = 0x0101
	TagMake           uint16 = 0x010f
	TagModel          uint16 = 0x0110
	TagOrientation    uint16 = 0x0112
	TagXResolution    uint16 = 0x011a
	TagYResolution    uint16 = 0x011b
	TagResolutionUnit uint16 = 0x0128
)

// Entry is one IFD entry with its value already encoded in the target byte order.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

// Short builds a SHORT entry.
func Short(order binary.ByteOrder, tag, v uint16) Entry {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Value: b}
}

// Long builds a LONG entry.
func Long(order binary.ByteOrder, tag uint16, v uint32) Entry {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return Entry{Tag: tag, Type: TypeLong, Count: 1, Value: b}
}

// ASCII builds a NUL-terminated ASCII entry.
func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), Value: b}
}

// Rational builds a RATIONAL entry.
func Rational(order binary.ByteOrder, tag uint16, num, den uint32) Entry {
	b := make([]byte, 8)
	order.PutUint32(b[0:], num)
	order.PutUint32(b[4:], den)
	return Entry{Tag: tag, Type: TypeRational, Count: 1, Value: b}
}

// TIFF lays out a TIFF header followed by a single IFD holding entries.
func TIFF(order binary.ByteOrder, entries ...Entry) []byte {
	const headerSize = 8
	ifdSize := 2 + 12*len(entries) + 4
	dataOff := headerSize + ifdSize

	var buf bytes.Buffer
	if order == binary.ByteOrder(binary.LittleEndian) {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	b2 := make([]byte, 2)
	b4 := make([]byte, 4)
	order.PutUint16(b2, 42)
	buf.Write(b2)
	order.PutUint32(b4, headerSize)
	buf.Write(b4)

	order.PutUint16(b2, uint16(len(entries)))
	buf.Write(b2)

	var data []byte
	for _, e := range entries {
		order.PutUint16(b2, e.Tag)
		buf.Write(b2)
		order.PutUint16(b2, e.Type)
		buf.Write(b2)
		order.PutUint32(b4, e.Count)
		buf.Write(b4)
		if len(e.Value) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Value)
			buf.Write(v)
			continue
		}
		order.PutUint32(b4, uint32(dataOff+len(data)))
		buf.Write(b4)
		data = append(data, e.Value...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	order.PutUint32(b4, 0)
	buf.Write(b4)
	buf.Write(data)
	return buf.Bytes()
}

// JPEG encodes a 2x2 image and splices an APP1 Exif segment carrying tiffData right
// after the SOI marker.
func JPEG(tiffData []byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.RGBA{R: uint8(120 * x), G: uint8(120 * y), B: 80, A: 255})
		}
	}
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, nil); err != nil {
		panic(err)
	}
	raw := enc.Bytes()

	payload := append([]byte("Exif\x00\x00"), tiffData...)
	seg := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := make([]byte, 0, len(raw)+len(seg))
	out = append(out, raw[:2]...)
	out = append(out, seg...)
	out = append(out, raw[2:]...)
	return out
}

// Sample returns a 2x2 JPEG whose little-endian Exif block carries ImageWidth,
// ImageLength, Make and Orientation=1.
func Sample() []byte {
	le := binary.LittleEndian
	return JPEG(TIFF(le,
		Short(le, TagImageWidth, 2),
		Short(le, TagImageLength, 2),
		ASCII(TagMake, "exifscope"),
		Short(le, TagOrientation, 1),
		Rational(le, TagXResolution, 72, 1),
		Short(le, TagResolutionUnit, 2),
	))
}

// SampleBigEndian is Sample with a Motorola byte order Exif block.
func SampleBigEndian() []byte {
	be := binary.BigEndian
	return JPEG(TIFF(be,
		Short(be, TagImageWidth, 2),
		Short(be, TagImageLength, 2),
		Short(be, TagOrientation, 6),
	))
}

// Truncated returns Sample cut inside the Exif block, leaving the JPEG and APP1 headers
// intact.
func Truncated() []byte {
	full := Sample()
	// SOI (2) + APP1 marker and length (4) + "Exif\0\0" (6) + TIFF header (8) + 4.
	return full[:2+4+6+8+4]
}
