package sff

import (
	"fmt"

	"github.com/golang/glog"
)

// spriteEntryV1 is the 32-byte legacy subheader.
type spriteEntryV1 struct {
	Next        uint32
	Size        uint32
	X, Y        int16
	Group       uint16
	Number      uint16
	Link        uint16
	SamePalette uint8
}

func readSpriteEntryV1(r *Reader) (spriteEntryV1, error) {
	var e spriteEntryV1
	var err error
	if e.Next, err = r.ReadU32(); err != nil {
		return e, err
	}
	if e.Size, err = r.ReadU32(); err != nil {
		return e, err
	}
	if e.X, err = r.ReadI16(); err != nil {
		return e, err
	}
	if e.Y, err = r.ReadI16(); err != nil {
		return e, err
	}
	if e.Group, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Number, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Link, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.SamePalette, err = r.ReadU8(); err != nil {
		return e, err
	}

	return e, nil
}

// spriteEntryV2 is the 28-byte v2 directory record.
type spriteEntryV2 struct {
	Group, Number uint16
	Width, Height uint16
	X, Y          int16
	Link          uint16
	Format        uint8
	Depth         uint8
	Offset        uint32
	Size          uint32
	Palette       uint16
	Flags         uint16
}

func readSpriteEntryV2(r *Reader) (spriteEntryV2, error) {
	var e spriteEntryV2
	var err error
	for _, f := range []*uint16{&e.Group, &e.Number, &e.Width, &e.Height} {
		if *f, err = r.ReadU16(); err != nil {
			return e, err
		}
	}
	if e.X, err = r.ReadI16(); err != nil {
		return e, err
	}
	if e.Y, err = r.ReadI16(); err != nil {
		return e, err
	}
	if e.Link, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Format, err = r.ReadU8(); err != nil {
		return e, err
	}
	if e.Depth, err = r.ReadU8(); err != nil {
		return e, err
	}
	if e.Offset, err = r.ReadU32(); err != nil {
		return e, err
	}
	if e.Size, err = r.ReadU32(); err != nil {
		return e, err
	}
	if e.Palette, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Flags, err = r.ReadU16(); err != nil {
		return e, err
	}

	return e, nil
}

// spriteJob is what the directory pass hands to the decode pass.
type spriteJob struct {
	offset  int64
	payload []byte
	linked  bool
	link    int
	// err is a deferred per-sprite failure, reported by the decode pass.
	err error
}

// directory walks the sprite directory, filling sprite metadata and
// capturing payloads. Legacy palettes are registered here, in file order.
type directory struct {
	r    *Reader
	h    *Header
	pals *paletteTable
	out  []Sprite
	jobs []spriteJob
}

func (d *directory) read() error {
	switch d.h.Variant() {
	case VariantLegacy:
		return d.readLegacy()
	case VariantCurrent:
		return d.readCurrent()
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedVersion, d.h.VersionString())
}

func (d *directory) readLegacy() error {
	prev := -1
	shofs := int64(d.h.FirstSpriteOffset)
	for i := range d.out {
		if err := d.r.Seek(shofs); err != nil {
			return fmt.Errorf("%w: %d: %w", ErrReadSprite, i, err)
		}
		e, err := readSpriteEntryV1(d.r)
		if err != nil {
			return fmt.Errorf("%w: %d at 0x%X: %w", ErrReadSprite, i, shofs, err)
		}

		s := &d.out[i]
		s.Group, s.Number = e.Group, e.Number
		s.OffsetX, s.OffsetY = e.X, e.Y
		s.Tag, s.ColorDepth, s.Kind = LegacyPCX, 8, KindPaletted

		if e.Size == 0 {
			d.jobs[i] = spriteJob{offset: shofs, linked: true, link: int(e.Link)}
		} else {
			dataStart := shofs + spriteEntrySizeV1
			job, err := d.readLegacyData(i, e, dataStart, prev)
			if err != nil {
				return err
			}
			d.jobs[i] = job
			if s.Group != 9000 || s.Number == 0 {
				prev = i
			}
		}

		shofs = int64(e.Next)
	}

	// v1 declares no palette count; report what was discovered
	n, err := u32FromInt(len(d.pals.list))
	if err != nil {
		return err
	}
	d.h.NumberOfPalettes = n

	return nil
}

// readLegacyData reads one PCX block. The declared size is only trusted for
// the last sprite; otherwise the block runs up to the next subheader. Unless
// the sprite reuses its predecessor's palette, 768 RGB bytes at the block
// tail form a new palette.
func (d *directory) readLegacyData(i int, e spriteEntryV1, dataStart int64, prev int) (spriteJob, error) {
	size := int64(e.Size)
	if next := int64(e.Next); next > dataStart {
		size = next - dataStart
	}

	samePalette := e.SamePalette != 0 && prev >= 0
	palLen := int64(pcxPaletteLen)
	if samePalette {
		palLen = 0
	}
	if size < pcxHeaderSize+palLen {
		size = pcxHeaderSize + palLen
	}

	if err := d.r.Seek(dataStart); err != nil {
		return spriteJob{}, fmt.Errorf("%w: %d: %w", ErrReadSprite, i, err)
	}
	block, err := d.r.ReadBytes(int(size))
	if err != nil {
		return spriteJob{}, fmt.Errorf("%w: %d data at 0x%X: %w", ErrReadSprite, i, dataStart, err)
	}
	if _, err := parsePCXHeader(block); err != nil {
		return spriteJob{}, fmt.Errorf("%w: %d at 0x%X: %w", ErrReadSprite, i, dataStart, err)
	}

	s := &d.out[i]
	if samePalette {
		s.PaletteIndex = d.out[prev].PaletteIndex
		glog.V(3).Infof("sprite %d (%d,%d) reuses palette %d", i, s.Group, s.Number, s.PaletteIndex)
		return spriteJob{offset: dataStart, payload: block}, nil
	}

	tail := len(block) - pcxPaletteLen
	s.PaletteIndex = d.pals.add(PaletteKey{Group: s.Group, Number: s.Number}, paletteFromRGB(block[tail:]))

	return spriteJob{offset: dataStart, payload: block[:tail]}, nil
}

func (d *directory) readCurrent() error {
	for i := range d.out {
		entryOff := int64(d.h.FirstSpriteOffset) + int64(i)*spriteEntrySizeV2
		if err := d.r.Seek(entryOff); err != nil {
			return fmt.Errorf("%w: %d: %w", ErrReadSprite, i, err)
		}
		e, err := readSpriteEntryV2(d.r)
		if err != nil {
			return fmt.Errorf("%w: %d at 0x%X: %w", ErrReadSprite, i, entryOff, err)
		}

		s := &d.out[i]
		s.Group, s.Number = e.Group, e.Number
		s.Width, s.Height = int(e.Width), int(e.Height)
		s.OffsetX, s.OffsetY = e.X, e.Y
		s.PaletteIndex = int(e.Palette)
		s.ColorDepth = e.Depth

		if e.Size == 0 {
			d.jobs[i] = spriteJob{offset: entryOff, linked: true, link: int(e.Link)}
			continue
		}

		dataOff := d.h.DataOffset(e.Offset, e.Flags)
		tag, err := TagFromCode(-int(e.Format))
		if err == nil && tag == LegacyPCX {
			err = fmt.Errorf("%w: PCX payload in a v2 container", ErrUnknownCompression)
		}
		if err != nil {
			// the entry itself was readable; let the decode pass apply policy
			d.jobs[i] = spriteJob{offset: dataOff, err: err}
			continue
		}
		s.Tag = tag

		job, err := d.readCurrentData(i, tag, dataOff, e.Size)
		if err != nil {
			return err
		}
		d.jobs[i] = job
	}

	return nil
}

// readCurrentData captures a v2 payload. Compressed payloads start with a
// 4-byte decoded length that is skipped.
func (d *directory) readCurrentData(i int, tag CompressionTag, dataOff int64, size uint32) (spriteJob, error) {
	start, n := dataOff, int64(size)
	if tag != Raw {
		start += 4
		n = max(n-4, 0)
	}

	if err := d.r.Seek(start); err != nil {
		return spriteJob{}, fmt.Errorf("%w: %d: %w", ErrReadSprite, i, err)
	}
	payload, err := d.r.ReadBytes(int(n))
	if err != nil {
		return spriteJob{}, fmt.Errorf("%w: %d data at 0x%X: %w", ErrReadSprite, i, start, err)
	}

	return spriteJob{offset: dataOff, payload: payload}, nil
}
