package sff

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// LoadOptions configures SFF loading.
type LoadOptions struct {
	// Workers decodes sprite payloads concurrently when greater than 1.
	// Palette indices are assigned before decoding, so results do not
	// depend on the worker count.
	Workers int

	// SkipBrokenSprites turns per-sprite decode failures into warnings and
	// empty sprites instead of failing the whole load.
	SkipBrokenSprites bool

	// NormalizeV200Alpha makes palettes of 2.0.0.x files transparent at
	// entry 0 and opaque elsewhere; those files do not store usable alpha.
	NormalizeV200Alpha bool
}

// Warning is a non-fatal problem found while loading.
type Warning struct {
	Sprite int
	Offset int64
	Err    error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("sprite %d at 0x%X: %v", w.Sprite, w.Offset, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// File is a fully decoded SFF container.
type File struct {
	Header Header

	Sprites []Sprite

	// Palettes holds one entry per palette slot. Slots sharing a
	// (group, number) key hold the same pointer.
	Palettes []*Palette

	Warnings []*Warning

	// LinkedSprites counts directory entries without data of their own.
	LinkedSprites int

	// PaletteUsage counts decoded paletted sprites per palette index.
	PaletteUsage map[int]int
	// CompressionUsage counts decoded sprites per codec.
	CompressionUsage map[CompressionTag]int

	paletteKeys map[PaletteKey]int
}

// Open reads and decodes an SFF file.
func Open(path string) (*File, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions reads and decodes an SFF file with the given options.
func OpenWithOptions(path string, opts *LoadOptions) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	sff, err := LoadWithOptions(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	return sff, nil
}

// Load decodes an SFF container from rs, which must be positioned at its start.
func Load(rs io.ReadSeeker) (*File, error) {
	return LoadWithOptions(rs, nil)
}

// LoadWithOptions decodes an SFF container with the given options.
// Nil opts loads sequentially and fails on the first broken sprite.
func LoadWithOptions(rs io.ReadSeeker, opts *LoadOptions) (*File, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}

	r := NewReader(rs)
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if err := checkDirectorySize(r, h); err != nil {
		return nil, err
	}

	pals := newPaletteTable(0)
	if h.Variant() == VariantCurrent {
		normalize := opts.NormalizeV200Alpha && h.Version[1] == 0
		if pals, err = readPalettes(r, h, normalize); err != nil {
			return nil, err
		}
	}

	d := &directory{
		r:    r,
		h:    h,
		pals: pals,
		out:  make([]Sprite, h.NumberOfSprites),
		jobs: make([]spriteJob, h.NumberOfSprites),
	}
	if err := d.read(); err != nil {
		return nil, err
	}

	f := &File{
		Header:      *h,
		Sprites:     d.out,
		Palettes:    pals.list,
		paletteKeys: pals.keys,
	}

	warnings, err := f.decodeSprites(d.jobs, opts)
	if err != nil {
		return nil, err
	}
	f.Warnings = warnings
	f.recount()

	glog.V(1).Infof("loaded sff %s: %d sprites (%d linked), %d palettes, %d warnings",
		f.Header.VersionString(), len(f.Sprites), f.LinkedSprites, len(f.Palettes), len(f.Warnings))

	return f, nil
}

// checkDirectorySize rejects sprite and palette counts whose directory
// records cannot fit in the stream, before any per-entry slice is allocated.
func checkDirectorySize(r *Reader, h *Header) error {
	size, err := r.Size()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadHeader, err)
	}

	entry := int64(spriteEntrySizeV1)
	if h.Variant() == VariantCurrent {
		entry = spriteEntrySizeV2
	}
	if need := int64(h.NumberOfSprites) * entry; need > size {
		return fmt.Errorf("%w: %w: %d sprites need %d directory bytes, file has %d",
			ErrReadHeader, ErrTruncatedRead, h.NumberOfSprites, need, size)
	}
	if need := int64(h.NumberOfPalettes) * paletteEntrySizeV2; need > size {
		return fmt.Errorf("%w: %w: %d palettes need %d directory bytes, file has %d",
			ErrReadHeader, ErrTruncatedRead, h.NumberOfPalettes, need, size)
	}

	return nil
}

// decodeSprites runs the codecs over the captured payloads, then resolves
// links in directory order so every link target is final before it is copied.
func (f *File) decodeSprites(jobs []spriteJob, opts *LoadOptions) ([]*Warning, error) {
	perSprite := make([]*Warning, len(jobs))

	decodeOne := func(i int) error {
		job := &jobs[i]
		if job.linked {
			return nil
		}
		s := &f.Sprites[i]
		s.Link = -1

		w, err := decodeJob(s, job)
		if err != nil {
			err = fmt.Errorf("%w: %d (%d,%d) at 0x%X: %w", ErrDecodeSprite, i, s.Group, s.Number, job.offset, err)
			if !opts.SkipBrokenSprites {
				return err
			}
			s.Pix, s.Kind, s.Width, s.Height = nil, KindNone, 0, 0
			w = &Warning{Sprite: i, Offset: job.offset, Err: err}
		}
		if w != nil {
			w.Sprite = i
			perSprite[i] = w
		}
		return nil
	}

	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range jobs {
			g.Go(func() error { return decodeOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range jobs {
			if err := decodeOne(i); err != nil {
				return nil, err
			}
		}
	}

	var warnings []*Warning
	for i := range jobs {
		job := &jobs[i]
		if job.linked {
			if w := resolveLink(f.Sprites, i, job.link, job.offset); w != nil {
				warnings = append(warnings, w)
			}
			continue
		}

		if w := perSprite[i]; w != nil {
			glog.Warningf("%v", w)
			warnings = append(warnings, w)
		}
		s := &f.Sprites[i]
		if s.IsPaletted() && s.PaletteIndex >= len(f.Palettes) {
			w := &Warning{Sprite: i, Offset: job.offset, Err: fmt.Errorf("%w: %d of %d", ErrPaletteIndex, s.PaletteIndex, len(f.Palettes))}
			glog.Warningf("%v", w)
			warnings = append(warnings, w)
		}
	}

	return warnings, nil
}

// recount rebuilds the link and usage statistics from the sprite list.
// Linked entries count toward LinkedSprites only.
func (f *File) recount() {
	f.LinkedSprites = 0
	f.PaletteUsage = make(map[int]int)
	f.CompressionUsage = make(map[CompressionTag]int)
	for i := range f.Sprites {
		s := &f.Sprites[i]
		switch {
		case s.IsLinked():
			f.LinkedSprites++
		case s.Empty():
		default:
			if s.IsPaletted() {
				f.PaletteUsage[s.PaletteIndex]++
			}
			f.CompressionUsage[s.Tag]++
		}
	}
}

// decodeJob decodes one payload into s. Zero padded output is returned as a
// warning rather than an error.
func decodeJob(s *Sprite, job *spriteJob) (*Warning, error) {
	if job.err != nil {
		return nil, job.err
	}

	dec, err := Decompress(s.Tag, job.payload, s.Width, s.Height, s.ColorDepth)
	if err != nil {
		return nil, err
	}
	s.Pix, s.Width, s.Height, s.Kind = dec.Pix, dec.Width, dec.Height, dec.Kind
	glog.V(3).Infof("sprite (%d,%d) %s %dx%d %s", s.Group, s.Number, s.Tag, s.Width, s.Height, s.Kind)

	if dec.Padded > 0 {
		return &Warning{
			Offset: job.offset,
			Err:    fmt.Errorf("%w: %d of %d bytes zero filled", ErrShortPixelData, dec.Padded, len(dec.Pix)),
		}, nil
	}

	return nil, nil
}

// Sprite returns the sprite at index i or nil.
func (f *File) Sprite(i int) *Sprite {
	if i < 0 || i >= len(f.Sprites) {
		return nil
	}

	return &f.Sprites[i]
}

// Lookup returns the first sprite with the given group and number in
// directory order, or nil.
func (f *File) Lookup(group, number uint16) *Sprite {
	for i := range f.Sprites {
		if f.Sprites[i].Group == group && f.Sprites[i].Number == number {
			return &f.Sprites[i]
		}
	}

	return nil
}

// Palette returns the palette in slot i or nil.
func (f *File) Palette(i int) *Palette {
	if i < 0 || i >= len(f.Palettes) {
		return nil
	}

	return f.Palettes[i]
}

// PaletteByKey returns the palette first registered under (group, number).
// For v1 files the key is the sprite that introduced the palette.
func (f *File) PaletteByKey(group, number uint16) *Palette {
	idx, ok := f.paletteKeys[PaletteKey{Group: group, Number: number}]
	if !ok {
		return nil
	}

	return f.Palette(idx)
}

// PaletteOf returns the palette of a paletted sprite or nil.
func (f *File) PaletteOf(s *Sprite) *Palette {
	if s == nil || !s.IsPaletted() {
		return nil
	}

	return f.Palette(s.PaletteIndex)
}

// Image returns sprite i as an image, see Sprite.Image.
func (f *File) Image(i int) (image.Image, error) {
	s := f.Sprite(i)
	if s == nil {
		return nil, fmt.Errorf("%w: %d", ErrSpriteIndex, i)
	}

	return s.Image(f.PaletteOf(s))
}

// Release drops every pixel buffer and palette so they can be collected
// once the renderer has mirrored them.
func (f *File) Release() {
	f.Sprites = nil
	f.Palettes = nil
	f.Warnings = nil
	f.paletteKeys = nil
	f.LinkedSprites = 0
	clear(f.PaletteUsage)
	clear(f.CompressionUsage)
}
