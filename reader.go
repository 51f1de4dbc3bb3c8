package sff

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader performs little-endian primitive reads over a seekable stream.
// It keeps no buffer: every call issues exactly one read for the bytes it needs.
type Reader struct {
	rs   io.ReadSeeker
	off  int64
	size int64
	buf  [4]byte
}

// NewReader wraps rs, assuming it is positioned at offset 0.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{rs: rs, size: -1}
}

// Size returns the stream length, measured once on first use.
func (r *Reader) Size() (int64, error) {
	if r.size >= 0 {
		return r.size, nil
	}
	end, err := r.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: end: %v", ErrSeek, err)
	}
	if _, err := r.rs.Seek(r.off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: 0x%X: %v", ErrSeek, r.off, err)
	}
	r.size = end

	return end, nil
}

// Remaining returns the bytes left between the current offset and the end.
func (r *Reader) Remaining() (int64, error) {
	size, err := r.Size()
	if err != nil {
		return 0, err
	}

	return max(size-r.off, 0), nil
}

// Offset returns the current stream position.
func (r *Reader) Offset() int64 {
	return r.off
}

// Seek moves to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	n, err := r.rs.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("%w: 0x%X: %v", ErrSeek, offset, err)
	}
	r.off = n

	return nil
}

func (r *Reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	got, err := io.ReadFull(r.rs, b)
	r.off += int64(got)
	if err != nil {
		return nil, fmt.Errorf("%w: need %d bytes at 0x%X: %v", ErrTruncatedRead, n, r.off-int64(got), err)
	}

	return b, nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// ReadI16 reads a little-endian int16.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	// #nosec G115 -- two's complement reinterpretation.
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a little-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	// #nosec G115 -- two's complement reinterpretation.
	return int32(v), err
}

// ReadBytes reads exactly n bytes into a new slice. Lengths past the end of
// the stream fail before anything is allocated.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > maxPixelBytes {
		return nil, fmt.Errorf("%w: read length %d", ErrSizeOverflow, n)
	}
	rem, err := r.Remaining()
	if err != nil {
		return nil, err
	}
	if int64(n) > rem {
		return nil, fmt.Errorf("%w: need %d bytes at 0x%X, %d left", ErrTruncatedRead, n, r.off, rem)
	}
	b := make([]byte, n)
	got, err := io.ReadFull(r.rs, b)
	r.off += int64(got)
	if err != nil {
		return nil, fmt.Errorf("%w: need %d bytes at 0x%X: %v", ErrTruncatedRead, n, r.off-int64(got), err)
	}

	return b, nil
}
