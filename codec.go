package sff

import (
	"errors"
	"fmt"
)

// Decoded is the output of a codec.
type Decoded struct {
	Pix    []byte
	Width  int
	Height int
	Kind   PixelKind

	// Padded counts trailing bytes the codec had to zero fill.
	Padded int
}

// Decompress turns a sprite payload into a pixel buffer.
// Every failure matches ErrDecode.
//
// For LegacyPCX, src is the whole PCX block (sub-header included) and the
// dimensions come from it; for the PNG tags they come from the PNG stream.
// All other codecs fill exactly width*height*bpp bytes. depth is consulted
// only for Raw payloads.
func Decompress(tag CompressionTag, src []byte, width, height int, depth uint8) (*Decoded, error) {
	dec, err := decompress(tag, src, width, height, depth)
	if err != nil && !errors.Is(err, ErrDecode) {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, tag, err)
	}

	return dec, err
}

func decompress(tag CompressionTag, src []byte, width, height int, depth uint8) (*Decoded, error) {
	switch tag {
	case Raw:
		return decodeRaw(src, width, height, depth)
	case LegacyPCX:
		return decodePCX(src)
	case RLE8:
		return decodeRLE8(src, width, height)
	case RLE5:
		return decodeRLE5(src, width, height)
	case LZ5:
		return decodeLZ5(src, width, height)
	case PngPaletted, PngRGBA16, PngRGBA8:
		return decodePNG(tag, src)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, tag)
}

// decodeRaw copies an uncompressed payload, clamping or zero padding it to
// the declared size.
func decodeRaw(src []byte, width, height int, depth uint8) (*Decoded, error) {
	kind, err := pixelKind(Raw, depth)
	if err != nil {
		return nil, err
	}
	n, err := bufferLen(width, height, kind.BytesPerPixel())
	if err != nil {
		return nil, err
	}

	dst := make([]byte, n)
	copied := copy(dst, src)

	return &Decoded{Pix: dst, Width: width, Height: height, Kind: kind, Padded: n - copied}, nil
}
