package sff

import "fmt"

// decodeLZ5 decodes the v2 LZ5 scheme into a zeroed width*height buffer.
//
// A control byte supplies one flag per packet, least significant bit first,
// and is refilled from the source every eight packets. Flagged packets are
// back references into the output; short references contribute their top
// two bits to a shared accumulator that becomes a full offset once four
// references have filled it. Clear flags are color runs. References that
// reach before the start of the output yield zero bytes.
func decodeLZ5(src []byte, width, height int) (*Decoded, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %w: LZ5", ErrDecode, ErrEmptyPayload)
	}
	size, err := bufferLen(width, height, 1)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, size)
	last := len(src) - 1
	i, j := 0, 0
	next := func() int {
		b := int(src[i])
		if i < last {
			i++
		}
		return b
	}

	ct := byte(next())
	var cts, rbc uint
	var rb byte
	for j < len(dst) {
		d := next()
		if ct&(1<<cts) != 0 {
			var n int
			if d&0x3f == 0 {
				d = (d<<2 | next()) + 1
				n = next() + 2
			} else {
				rb |= byte((d & 0xc0) >> rbc)
				rbc += 2
				n = d & 0x3f
				if rbc < 8 {
					d = next() + 1
				} else {
					d = int(rb) + 1
					rb, rbc = 0, 0
				}
			}
			for ; n >= 0 && j < len(dst); n-- {
				if d > 0 && j >= d {
					dst[j] = dst[j-d]
				} else {
					dst[j] = 0
				}
				j++
			}
		} else {
			var n int
			if d&0xe0 == 0 {
				n = next() + 8
			} else {
				n = d >> 5
				d &= 0x1f
			}
			for ; n > 0 && j < len(dst); n-- {
				// #nosec G115 -- d is a byte or a 5-bit color.
				dst[j] = byte(d)
				j++
			}
		}

		cts++
		if cts >= 8 {
			ct = byte(next())
			cts = 0
		}
	}

	return &Decoded{Pix: dst, Width: width, Height: height, Kind: KindPaletted}, nil
}
