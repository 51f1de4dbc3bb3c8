package sff

import (
	"encoding/binary"
	"fmt"
)

const (
	pcxHeaderSize = 128
	pcxPaletteLen = PaletteSize * 3
)

// pcxHeader holds the fields of the 128-byte PCX sub-header that matter here.
type pcxHeader struct {
	Encoding     uint8
	BitsPerPixel uint8
	Rect         [4]uint16
	BytesPerLine uint16
}

func (h pcxHeader) width() int  { return int(h.Rect[2]) - int(h.Rect[0]) + 1 }
func (h pcxHeader) height() int { return int(h.Rect[3]) - int(h.Rect[1]) + 1 }

func parsePCXHeader(b []byte) (pcxHeader, error) {
	var h pcxHeader
	if len(b) < pcxHeaderSize {
		return h, fmt.Errorf("%w: PCX header needs %d bytes, have %d", ErrTruncatedRead, pcxHeaderSize, len(b))
	}
	h.Encoding = b[2]
	h.BitsPerPixel = b[3]
	if h.BitsPerPixel != 8 {
		return h, fmt.Errorf("%w: got %d", ErrInvalidBitDepth, h.BitsPerPixel)
	}
	for i := range h.Rect {
		h.Rect[i] = binary.LittleEndian.Uint16(b[4+i*2:])
	}
	h.BytesPerLine = binary.LittleEndian.Uint16(b[66:])
	if h.width() <= 0 || h.height() <= 0 {
		return h, fmt.Errorf("%w: PCX rectangle %v", ErrDecode, h.Rect)
	}

	return h, nil
}

// decodePCX decodes a PCX block (128-byte header followed by RLE pixels).
func decodePCX(block []byte) (*Decoded, error) {
	h, err := parsePCXHeader(block)
	if err != nil {
		return nil, err
	}
	src := block[pcxHeaderSize:]
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %w: PCX", ErrDecode, ErrEmptyPayload)
	}

	n, err := bufferLen(h.width(), h.height(), 1)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, n)
	written := decodePCXRLE(dst, src)

	return &Decoded{
		Pix:    dst,
		Width:  h.width(),
		Height: h.height(),
		Kind:   KindPaletted,
		Padded: n - written,
	}, nil
}

// decodePCXRLE expands PCX runs into dst and returns the bytes written.
// A byte with both top bits set is a run length (low 6 bits) for the next
// byte; anything else is a literal. The unwritten tail of dst stays zero.
func decodePCXRLE(dst, src []byte) int {
	i, j := 0, 0
	for i < len(src) && j < len(dst) {
		b := src[i]
		i++
		n := 1
		if b&0xc0 == 0xc0 {
			if i >= len(src) {
				// run marker without a value byte
				break
			}
			n = int(b & 0x3f)
			b = src[i]
			i++
		}
		for ; n > 0 && j < len(dst); n-- {
			dst[j] = b
			j++
		}
	}

	return j
}

// decodeRLE8 decodes the v2 RLE8 scheme into a width*height buffer.
// A control byte 01xxxxxx repeats the following byte xxxxxx times; any other
// byte is a single literal. The source cursor never moves past its last byte.
func decodeRLE8(src []byte, width, height int) (*Decoded, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %w: RLE8", ErrDecode, ErrEmptyPayload)
	}
	n, err := bufferLen(width, height, 1)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, n)
	last := len(src) - 1
	i, j := 0, 0
	for j < len(dst) {
		run, d := 1, src[i]
		if i < last {
			i++
		}
		if d&0xc0 == 0x40 {
			run = int(d & 0x3f)
			d = src[i]
			if i < last {
				i++
			} else if run == 0 {
				// an empty run at the end of the source can never make progress
				break
			}
		}
		for ; run > 0 && j < len(dst); run-- {
			dst[j] = d
			j++
		}
	}

	return &Decoded{Pix: dst, Width: width, Height: height, Kind: KindPaletted, Padded: n - j}, nil
}

// encodeRLE8 is the inverse of decodeRLE8, used for tests and snapshots of
// indexed data. Runs are capped at 63 and literals that look like control
// bytes are escaped as runs of one.
func encodeRLE8(pix []byte) []byte {
	out := make([]byte, 0, len(pix))
	for i := 0; i < len(pix); {
		run := 1
		for i+run < len(pix) && pix[i+run] == pix[i] && run < 0x3f {
			run++
		}
		if run > 1 || pix[i]&0xc0 == 0x40 {
			out = append(out, 0x40|byte(run), pix[i])
		} else {
			out = append(out, pix[i])
		}
		i += run
	}

	return out
}

// decodeRLE5 decodes the v2 RLE5 scheme into a width*height buffer.
// Each packet starts with a run length and a data length byte whose top bit
// announces an explicit color; the data bytes then pack a 3-bit run length
// and a 5-bit color each.
func decodeRLE5(src []byte, width, height int) (*Decoded, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %w: RLE5", ErrDecode, ErrEmptyPayload)
	}
	n, err := bufferLen(width, height, 1)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, n)
	last := len(src) - 1
	i, j := 0, 0
	for j < len(dst) {
		rl := int(src[i])
		if i < last {
			i++
		}
		dl := int(src[i] & 0x7f)
		c := byte(0)
		if src[i]>>7 != 0 {
			if i < last {
				i++
			}
			c = src[i]
		}
		if i < last {
			i++
		}
		for {
			if j < len(dst) {
				dst[j] = c
				j++
			}
			rl--
			if rl >= 0 {
				continue
			}
			dl--
			if dl < 0 {
				break
			}
			c = src[i] & 0x1f
			rl = int(src[i] >> 5)
			if i < last {
				i++
			}
		}
	}

	return &Decoded{Pix: dst, Width: width, Height: height, Kind: KindPaletted}, nil
}
