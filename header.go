package sff

import (
	"bytes"
	"fmt"

	"github.com/golang/glog"
)

// Magic is the 12-byte signature every SFF file starts with.
const Magic = "ElecbyteSpr\x00"

const (
	// VariantLegacy selects the SFF v1 layout (PCX sprites, linked directory).
	VariantLegacy = 1
	// VariantCurrent selects the SFF v2 layout (palette table, fixed stride directory).
	VariantCurrent = 2

	spriteEntrySizeV1  = 32
	spriteEntrySizeV2  = 28
	paletteEntrySizeV2 = 16
)

// Header is the parsed container header.
type Header struct {
	// Version holds the version bytes in file order; the last one is the variant.
	Version [4]byte

	FirstSpriteOffset  uint32
	NumberOfSprites    uint32
	FirstPaletteOffset uint32
	NumberOfPalettes   uint32

	// LocalDataOffset and GlobalDataOffset are v2 base offsets that sprite
	// data offsets are relative to, selected by each entry's location flag.
	LocalDataOffset  uint32
	GlobalDataOffset uint32
}

// Variant returns the layout selector (lowest version byte).
func (h *Header) Variant() byte {
	return h.Version[3]
}

// VersionString formats the version bytes as stored, e.g. "0.1.0.1".
func (h *Header) VersionString() string {
	return fmt.Sprintf("%d.%d.%d.%d", h.Version[0], h.Version[1], h.Version[2], h.Version[3])
}

// DataOffset resolves a data offset relative to the base selected by flags bit 0.
func (h *Header) DataOffset(offset uint32, flags uint16) int64 {
	if flags&1 == 0 {
		return int64(h.LocalDataOffset) + int64(offset)
	}

	return int64(h.GlobalDataOffset) + int64(offset)
}

// ReadHeader validates the signature and reads the version specific header.
// r must be positioned at offset 0.
func ReadHeader(r *Reader) (*Header, error) {
	magic, err := r.ReadBytes(len(Magic))
	if err != nil {
		return nil, fmt.Errorf("%w: magic: %w", ErrReadHeader, err)
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}

	h := &Header{}
	for i := range h.Version {
		if h.Version[i], err = r.ReadU8(); err != nil {
			return nil, fmt.Errorf("%w: version: %w", ErrReadHeader, err)
		}
	}

	// reserved word present in both layouts
	if _, err := r.ReadU32(); err != nil {
		return nil, fmt.Errorf("%w: reserved: %w", ErrReadHeader, err)
	}

	switch h.Variant() {
	case VariantLegacy:
		err = h.readLegacy(r)
	case VariantCurrent:
		err = h.readCurrent(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, h.VersionString())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadHeader, err)
	}

	glog.V(2).Infof("sff %s: sprites=%d at 0x%X palettes=%d at 0x%X lofs=0x%X tofs=0x%X",
		h.VersionString(), h.NumberOfSprites, h.FirstSpriteOffset,
		h.NumberOfPalettes, h.FirstPaletteOffset, h.LocalDataOffset, h.GlobalDataOffset)

	return h, nil
}

func (h *Header) readLegacy(r *Reader) error {
	var err error
	if h.NumberOfSprites, err = r.ReadU32(); err != nil {
		return err
	}
	if h.FirstSpriteOffset, err = r.ReadU32(); err != nil {
		return err
	}

	return nil
}

func (h *Header) readCurrent(r *Reader) error {
	for range 4 {
		if _, err := r.ReadU32(); err != nil {
			return err
		}
	}

	fields := []*uint32{
		&h.FirstSpriteOffset,
		&h.NumberOfSprites,
		&h.FirstPaletteOffset,
		&h.NumberOfPalettes,
		&h.LocalDataOffset,
		nil,
		&h.GlobalDataOffset,
	}
	for _, f := range fields {
		v, err := r.ReadU32()
		if err != nil {
			return err
		}
		if f != nil {
			*f = v
		}
	}

	return nil
}
