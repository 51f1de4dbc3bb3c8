package sff

import "fmt"

// CompressionTag selects the codec of a sprite payload.
type CompressionTag int

// Compression tags, a closed set derived from the signed format code.
const (
	Raw CompressionTag = iota
	LegacyPCX
	RLE8
	RLE5
	LZ5
	PngPaletted
	PngRGBA16
	PngRGBA8
)

var tagNames = [...]string{
	Raw:         "raw",
	LegacyPCX:   "pcx",
	RLE8:        "rle8",
	RLE5:        "rle5",
	LZ5:         "lz5",
	PngPaletted: "png8",
	PngRGBA16:   "png24",
	PngRGBA8:    "png32",
}

var tagCodes = [...]int{
	Raw:         0,
	LegacyPCX:   -1,
	RLE8:        -2,
	RLE5:        -3,
	LZ5:         -4,
	PngPaletted: -10,
	PngRGBA16:   -11,
	PngRGBA8:    -12,
}

// TagFromCode maps a signed format code (the negated directory byte) to a tag.
func TagFromCode(code int) (CompressionTag, error) {
	for tag, c := range tagCodes {
		if c == code {
			return CompressionTag(tag), nil
		}
	}

	return 0, fmt.Errorf("%w: code %d", ErrUnknownCompression, code)
}

// Code returns the signed format code persisted for the tag.
func (t CompressionTag) Code() int {
	if int(t) < 0 || int(t) >= len(tagCodes) {
		return 1
	}

	return tagCodes[t]
}

func (t CompressionTag) String() string {
	if int(t) < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("tag(%d)", int(t))
	}

	return tagNames[t]
}

// IsPNG reports whether the payload is an embedded PNG stream.
func (t CompressionTag) IsPNG() bool {
	return t == PngPaletted || t == PngRGBA16 || t == PngRGBA8
}

// PixelKind classifies decoded pixel buffers for renderers.
type PixelKind int

const (
	// KindNone marks sprites without pixels (broken links).
	KindNone PixelKind = iota
	// KindPaletted buffers hold one palette index per pixel.
	KindPaletted
	// KindRGB buffers hold three bytes per pixel.
	KindRGB
	// KindRGBA buffers hold four straight-alpha bytes per pixel.
	KindRGBA
)

func (k PixelKind) String() string {
	switch k {
	case KindPaletted:
		return "paletted"
	case KindRGB:
		return "rgb"
	case KindRGBA:
		return "rgba"
	default:
		return "none"
	}
}

// BytesPerPixel returns the buffer stride of a pixel kind.
func (k PixelKind) BytesPerPixel() int {
	switch k {
	case KindPaletted:
		return 1
	case KindRGB:
		return 3
	case KindRGBA:
		return 4
	default:
		return 0
	}
}

// pixelKind derives the decoded layout from the tag and declared depth.
func pixelKind(tag CompressionTag, depth uint8) (PixelKind, error) {
	switch tag {
	case LegacyPCX, RLE8, RLE5, LZ5, PngPaletted:
		return KindPaletted, nil
	case PngRGBA16, PngRGBA8:
		return KindRGBA, nil
	case Raw:
		switch depth {
		case 8:
			return KindPaletted, nil
		case 24:
			return KindRGB, nil
		case 32:
			return KindRGBA, nil
		}
		return KindNone, fmt.Errorf("%w: %d", ErrUnsupportedColorDepth, depth)
	}

	return KindNone, fmt.Errorf("%w: %s", ErrUnknownCompression, tag)
}
