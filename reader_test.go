package sff

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader([]byte{
		0x7f,
		0x34, 0x12,
		0xfe, 0xff,
		0x78, 0x56, 0x34, 0x12,
		0xff, 0xff, 0xff, 0xff,
		'a', 'b',
	}))

	u8, err := r.ReadU8()
	if err != nil || u8 != 0x7f {
		t.Fatalf("ReadU8 = %x, %v", u8, err)
	}
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadU16 = %x, %v", u16, err)
	}
	i16, err := r.ReadI16()
	if err != nil || i16 != -2 {
		t.Fatalf("ReadI16 = %d, %v", i16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("ReadU32 = %x, %v", u32, err)
	}
	i32, err := r.ReadI32()
	if err != nil || i32 != -1 {
		t.Fatalf("ReadI32 = %d, %v", i32, err)
	}
	b, err := r.ReadBytes(2)
	if err != nil || string(b) != "ab" {
		t.Fatalf("ReadBytes = %q, %v", b, err)
	}
	if r.Offset() != 15 {
		t.Fatalf("Offset = %d", r.Offset())
	}

	if _, err := r.ReadU8(); !errors.Is(err, ErrTruncatedRead) {
		t.Fatalf("read past end err = %v", err)
	}

	if err := r.Seek(3); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if v, _ := r.ReadI16(); v != -2 || r.Offset() != 5 {
		t.Fatalf("after seek: %d at %d", v, r.Offset())
	}
}

func TestReaderBounds(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader([]byte{1, 2, 3}))

	tests := []struct {
		name    string
		n       int
		wantErr error
	}{
		{name: "negative", n: -1, wantErr: ErrSizeOverflow},
		{name: "huge", n: maxPixelBytes + 1, wantErr: ErrSizeOverflow},
		{name: "short", n: 4, wantErr: ErrTruncatedRead},
		{name: "past-end", n: maxPixelBytes, wantErr: ErrTruncatedRead},
	}
	for _, tc := range tests {
		if err := r.Seek(0); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		if _, err := r.ReadBytes(tc.n); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
	}

	if err := r.Seek(1); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	size, err := r.Size()
	if err != nil || size != 3 {
		t.Fatalf("Size = %d, %v", size, err)
	}
	if rem, _ := r.Remaining(); rem != 2 {
		t.Fatalf("Remaining = %d", rem)
	}
	if b, err := r.ReadBytes(2); err != nil || !bytes.Equal(b, []byte{2, 3}) {
		t.Fatalf("ReadBytes after Size = %v, %v", b, err)
	}

	if err := r.Seek(-5); !errors.Is(err, ErrSeek) {
		t.Fatalf("negative seek err = %v", err)
	}
}
