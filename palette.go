package sff

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/golang/glog"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteSize is the number of entries in every palette table.
const PaletteSize = 256

// Palette is a 256 entry straight-alpha color table.
type Palette [PaletteSize]color.NRGBA

// PaletteKey identifies a palette by its (group, number) pair.
type PaletteKey struct {
	Group  uint16
	Number uint16
}

// paletteFromRGB synthesizes a legacy palette from 256 packed RGB triplets.
// PCX tails store entries in index order, entry i = rgb[i*3:i*3+3]; only ACT
// files are stored last entry first. Entry 0 is the transparent color.
func paletteFromRGB(rgb []byte) *Palette {
	p := &Palette{}
	for i := range p {
		a := uint8(255)
		if i == 0 {
			a = 0
		}
		p[i] = color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: a}
	}

	return p
}

// paletteFromRGBA unpacks 256 little-endian 32-bit values (R in the low byte).
func paletteFromRGBA(raw []byte) *Palette {
	p := &Palette{}
	for i := range p {
		p[i] = color.NRGBA{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2], A: raw[i*4+3]}
	}

	return p
}

// normalizeAlpha forces entry 0 transparent and the rest opaque.
func (p *Palette) normalizeAlpha() {
	for i := range p {
		if i == 0 {
			p[i].A = 0
		} else {
			p[i].A = 255
		}
	}
}

// ColorPalette converts the table into a color.Palette for image.Paletted.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, PaletteSize)
	for i, c := range p {
		out[i] = c
	}

	return out
}

// RGBA returns the table as 1024 packed bytes (R, G, B, A per entry),
// the layout a 256x1 palette texture upload expects.
func (p *Palette) RGBA() []byte {
	out := make([]byte, PaletteSize*4)
	for i, c := range p {
		out[i*4] = c.R
		out[i*4+1] = c.G
		out[i*4+2] = c.B
		out[i*4+3] = c.A
	}

	return out
}

// Nearest returns the opaque entry perceptually closest to c (CIE Lab distance).
// Entry 0 is skipped because it is reserved for transparency.
func (p *Palette) Nearest(c color.Color) uint8 {
	target, _ := colorful.MakeColor(c)
	best, bestDist := 1, math.MaxFloat64
	for i := 1; i < PaletteSize; i++ {
		e := p[i]
		cand := colorful.Color{R: float64(e.R) / 255, G: float64(e.G) / 255, B: float64(e.B) / 255}
		if d := target.DistanceLab(cand); d < bestDist {
			best, bestDist = i, d
		}
	}

	// #nosec G115 -- best < PaletteSize.
	return uint8(best)
}

// ReadACT reads an Adobe Color Table palette (768 bytes, stored last entry first).
func ReadACT(r io.Reader) (*Palette, error) {
	var rgb [PaletteSize * 3]byte
	if _, err := io.ReadFull(r, rgb[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadACT, err)
	}

	var ordered [PaletteSize * 3]byte
	for i := range PaletteSize {
		copy(ordered[i*3:i*3+3], rgb[(PaletteSize-1-i)*3:])
	}

	return paletteFromRGB(ordered[:]), nil
}

// WriteACT writes p as an Adobe Color Table in the reversed layout ReadACT expects.
func WriteACT(w io.Writer, p *Palette) error {
	var rgb [PaletteSize * 3]byte
	for i, c := range p {
		j := (PaletteSize - 1 - i) * 3
		rgb[j], rgb[j+1], rgb[j+2] = c.R, c.G, c.B
	}
	if _, err := w.Write(rgb[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteACT, err)
	}

	return nil
}

// paletteEntry is one 16-byte v2 palette directory record.
type paletteEntry struct {
	Key    PaletteKey
	Colors uint16
	Link   uint16
	Offset uint32
	Size   uint32
}

func readPaletteEntry(r *Reader) (paletteEntry, error) {
	var e paletteEntry
	var err error
	if e.Key.Group, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Key.Number, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Colors, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Link, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Offset, err = r.ReadU32(); err != nil {
		return e, err
	}
	if e.Size, err = r.ReadU32(); err != nil {
		return e, err
	}

	return e, nil
}

// paletteTable accumulates palettes and the key index in discovery order.
type paletteTable struct {
	list []*Palette
	keys map[PaletteKey]int
}

func newPaletteTable(capacity int) *paletteTable {
	return &paletteTable{
		list: make([]*Palette, 0, capacity),
		keys: make(map[PaletteKey]int),
	}
}

// add appends p and records key when it has not been seen yet.
func (t *paletteTable) add(key PaletteKey, p *Palette) int {
	idx := len(t.list)
	t.list = append(t.list, p)
	if _, ok := t.keys[key]; !ok {
		t.keys[key] = idx
	}

	return idx
}

// readPalettes loads the v2 palette table. Slots sharing a (group, number)
// key alias the first decoded table.
func readPalettes(r *Reader, h *Header, normalize bool) (*paletteTable, error) {
	t := newPaletteTable(int(min(h.NumberOfPalettes, 1024)))
	for i := uint32(0); i < h.NumberOfPalettes; i++ {
		entryOff := int64(h.FirstPaletteOffset) + int64(i)*paletteEntrySizeV2
		if err := r.Seek(entryOff); err != nil {
			return nil, fmt.Errorf("%w: %d: %w", ErrReadPalette, i, err)
		}
		e, err := readPaletteEntry(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %d at 0x%X: %w", ErrReadPalette, i, entryOff, err)
		}

		if idx, ok := t.keys[e.Key]; ok {
			glog.V(2).Infof("palette %d (%d,%d) is not unique, using palette %d", i, e.Key.Group, e.Key.Number, idx)
			t.list = append(t.list, t.list[idx])
			continue
		}

		if e.Size == 0 && uint32(e.Link) < i {
			glog.V(2).Infof("palette %d (%d,%d) links palette %d", i, e.Key.Group, e.Key.Number, e.Link)
			t.add(e.Key, t.list[e.Link])
			continue
		}

		// palette entries carry no location flag; their data is always local
		dataOff := h.DataOffset(e.Offset, 0)
		if err := r.Seek(dataOff); err != nil {
			return nil, fmt.Errorf("%w: %d: %w", ErrReadPalette, i, err)
		}
		raw, err := r.ReadBytes(PaletteSize * 4)
		if err != nil {
			return nil, fmt.Errorf("%w: %d data at 0x%X: %w", ErrReadPalette, i, dataOff, err)
		}

		p := paletteFromRGBA(raw)
		if normalize {
			p.normalizeAlpha()
		}
		t.add(e.Key, p)
	}

	return t, nil
}
