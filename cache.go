package sff

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	// CacheMagic marks a decoded snapshot written by WriteCache.
	CacheMagic = "SFFC"
	// CacheVersion is the snapshot layout version.
	CacheVersion uint16 = 1

	maxCacheEntries = 1 << 20
)

// CacheCodec selects the stream compression of a snapshot body.
type CacheCodec uint8

const (
	// CacheLZ4 compresses the body as an LZ4 frame.
	CacheLZ4 CacheCodec = iota
	// CacheZstd compresses the body as a zstd stream.
	CacheZstd
)

// CacheOptions configures snapshot writing.
type CacheOptions struct {
	Codec CacheCodec
	// Level is the LZ4 compression level; lz4.Fast by default.
	Level lz4.CompressionLevel
	// ZstdLevel is the zstd encoder level; zstd.SpeedDefault by default.
	ZstdLevel zstd.EncoderLevel
}

type cacheHeader struct {
	Version            [4]byte
	FirstSpriteOffset  uint32
	NumberOfSprites    uint32
	FirstPaletteOffset uint32
	NumberOfPalettes   uint32
	LocalDataOffset    uint32
	GlobalDataOffset   uint32
	PaletteSlots       uint32
	UniquePalettes     uint32
	PaletteKeys        uint32
	Sprites            uint32
}

type cacheKey struct {
	Group, Number uint16
	Index         uint32
}

type cacheSprite struct {
	Group, Number uint16
	Width, Height uint32
	OffsetX       int16
	OffsetY       int16
	PaletteIndex  int32
	Link          int32
	Tag           uint8
	ColorDepth    uint8
	Kind          uint8
	_             uint8
	PixLen        uint32
}

// SaveCache writes a snapshot of f to path.
func (f *File) SaveCache(path string, opts *CacheOptions) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = out.Close() }()

	bw := bufio.NewWriter(out)
	if err := f.WriteCache(bw, opts); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteCache, err)
	}

	return nil
}

// WriteCache writes a compressed snapshot of the decoded container.
// Aliased palette slots are stored once and restored as shared pointers.
// The body is followed by its xxhash64 inside the compressed stream.
func (f *File) WriteCache(w io.Writer, opts *CacheOptions) error {
	if opts == nil {
		opts = &CacheOptions{}
	}
	if opts.Codec > CacheZstd {
		return fmt.Errorf("%w: codec %d", ErrInvalidCache, opts.Codec)
	}

	if _, err := io.WriteString(w, CacheMagic); err != nil {
		return fmt.Errorf("%w: magic: %v", ErrWriteCache, err)
	}
	if err := binary.Write(w, binary.LittleEndian, CacheVersion); err != nil {
		return fmt.Errorf("%w: version: %v", ErrWriteCache, err)
	}
	if err := binary.Write(w, binary.LittleEndian, opts.Codec); err != nil {
		return fmt.Errorf("%w: codec: %v", ErrWriteCache, err)
	}

	var zw io.WriteCloser
	switch opts.Codec {
	case CacheLZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(opts.Level)); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteCache, err)
		}
		zw = lw
	case CacheZstd:
		level := opts.ZstdLevel
		if level == 0 {
			level = zstd.SpeedDefault
		}
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteCache, err)
		}
		zw = enc
	default:
		return fmt.Errorf("%w: codec %d", ErrInvalidCache, opts.Codec)
	}

	sum := xxhash.New()
	if err := f.writeCacheBody(io.MultiWriter(zw, sum)); err != nil {
		_ = zw.Close()
		return fmt.Errorf("%w: %w", ErrWriteCache, err)
	}
	if err := binary.Write(zw, binary.LittleEndian, sum.Sum64()); err != nil {
		_ = zw.Close()
		return fmt.Errorf("%w: checksum: %v", ErrWriteCache, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteCache, err)
	}

	return nil
}

func (f *File) writeCacheBody(w io.Writer) error {
	unique := make(map[*Palette]uint32)
	var tables []*Palette
	slots := make([]uint32, len(f.Palettes))
	for i, p := range f.Palettes {
		idx, ok := unique[p]
		if !ok {
			n, err := u32FromInt(len(tables))
			if err != nil {
				return err
			}
			idx = n
			unique[p] = idx
			tables = append(tables, p)
		}
		slots[i] = idx
	}

	hdr := cacheHeader{
		Version:            f.Header.Version,
		FirstSpriteOffset:  f.Header.FirstSpriteOffset,
		NumberOfSprites:    f.Header.NumberOfSprites,
		FirstPaletteOffset: f.Header.FirstPaletteOffset,
		NumberOfPalettes:   f.Header.NumberOfPalettes,
		LocalDataOffset:    f.Header.LocalDataOffset,
		GlobalDataOffset:   f.Header.GlobalDataOffset,
	}
	var err error
	if hdr.PaletteSlots, err = u32FromInt(len(slots)); err != nil {
		return err
	}
	if hdr.UniquePalettes, err = u32FromInt(len(tables)); err != nil {
		return err
	}
	if hdr.PaletteKeys, err = u32FromInt(len(f.paletteKeys)); err != nil {
		return err
	}
	if hdr.Sprites, err = u32FromInt(len(f.Sprites)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	for _, p := range tables {
		if _, err := w.Write(p.RGBA()); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, slots); err != nil {
		return err
	}
	for key, idx := range f.paletteKeys {
		k := cacheKey{Group: key.Group, Number: key.Number}
		if k.Index, err = u32FromInt(idx); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, &k); err != nil {
			return err
		}
	}

	for i := range f.Sprites {
		s := &f.Sprites[i]
		rec := cacheSprite{
			Group:      s.Group,
			Number:     s.Number,
			OffsetX:    s.OffsetX,
			OffsetY:    s.OffsetY,
			Tag:        uint8(s.Tag),
			ColorDepth: s.ColorDepth,
			Kind:       uint8(s.Kind),
		}
		if rec.Width, err = u32FromInt(s.Width); err != nil {
			return err
		}
		if rec.Height, err = u32FromInt(s.Height); err != nil {
			return err
		}
		if rec.PixLen, err = u32FromInt(len(s.Pix)); err != nil {
			return err
		}
		// #nosec G115 -- palette and sprite indices come from 16-bit fields.
		rec.PaletteIndex, rec.Link = int32(s.PaletteIndex), int32(s.Link)
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
		if _, err := w.Write(s.Pix); err != nil {
			return err
		}
	}

	return nil
}

// LoadCache reads a snapshot file written by SaveCache.
func LoadCache(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = in.Close() }()

	return ReadCache(bufio.NewReader(in))
}

// ReadCache reads a snapshot written by WriteCache.
func ReadCache(r io.Reader) (*File, error) {
	var magic [len(CacheMagic)]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: magic: %v", ErrReadCache, err)
	}
	if string(magic[:]) != CacheMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidCache, magic[:])
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrReadCache, err)
	}
	if version != CacheVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidCache, version)
	}
	var codec CacheCodec
	if err := binary.Read(r, binary.LittleEndian, &codec); err != nil {
		return nil, fmt.Errorf("%w: codec: %v", ErrReadCache, err)
	}

	var zr io.Reader
	switch codec {
	case CacheLZ4:
		zr = lz4.NewReader(r)
	case CacheZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadCache, err)
		}
		defer dec.Close()
		zr = dec
	default:
		return nil, fmt.Errorf("%w: codec %d", ErrInvalidCache, codec)
	}

	sum := xxhash.New()
	f, err := readCacheBody(io.TeeReader(zr, sum))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadCache, err)
	}
	var want uint64
	if err := binary.Read(zr, binary.LittleEndian, &want); err != nil {
		return nil, fmt.Errorf("%w: checksum: %v", ErrReadCache, err)
	}
	if got := sum.Sum64(); got != want {
		return nil, fmt.Errorf("%w: checksum %016x, want %016x", ErrInvalidCache, got, want)
	}

	return f, nil
}

func readCacheBody(r io.Reader) (*File, error) {
	var hdr cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	for _, n := range []uint32{hdr.PaletteSlots, hdr.UniquePalettes, hdr.PaletteKeys, hdr.Sprites} {
		if n > maxCacheEntries {
			return nil, fmt.Errorf("%w: %d entries", ErrInvalidCache, n)
		}
	}

	f := &File{
		Header: Header{
			Version:            hdr.Version,
			FirstSpriteOffset:  hdr.FirstSpriteOffset,
			NumberOfSprites:    hdr.NumberOfSprites,
			FirstPaletteOffset: hdr.FirstPaletteOffset,
			NumberOfPalettes:   hdr.NumberOfPalettes,
			LocalDataOffset:    hdr.LocalDataOffset,
			GlobalDataOffset:   hdr.GlobalDataOffset,
		},
		paletteKeys: make(map[PaletteKey]int, hdr.PaletteKeys),
	}

	tables := make([]*Palette, hdr.UniquePalettes)
	raw := make([]byte, PaletteSize*4)
	for i := range tables {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		tables[i] = paletteFromRGBA(raw)
	}
	slots := make([]uint32, hdr.PaletteSlots)
	if err := binary.Read(r, binary.LittleEndian, slots); err != nil {
		return nil, err
	}
	f.Palettes = make([]*Palette, len(slots))
	for i, idx := range slots {
		if int(idx) >= len(tables) {
			return nil, fmt.Errorf("%w: palette slot %d references table %d", ErrInvalidCache, i, idx)
		}
		f.Palettes[i] = tables[idx]
	}
	for range hdr.PaletteKeys {
		var k cacheKey
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return nil, err
		}
		f.paletteKeys[PaletteKey{Group: k.Group, Number: k.Number}] = int(k.Index)
	}

	f.Sprites = make([]Sprite, hdr.Sprites)
	for i := range f.Sprites {
		var rec cacheSprite
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		if rec.PixLen > maxPixelBytes {
			return nil, fmt.Errorf("%w: sprite %d: %d pixel bytes", ErrInvalidCache, i, rec.PixLen)
		}
		s := &f.Sprites[i]
		*s = Sprite{
			Group:        rec.Group,
			Number:       rec.Number,
			Width:        int(rec.Width),
			Height:       int(rec.Height),
			OffsetX:      rec.OffsetX,
			OffsetY:      rec.OffsetY,
			PaletteIndex: int(rec.PaletteIndex),
			Tag:          CompressionTag(rec.Tag),
			ColorDepth:   rec.ColorDepth,
			Kind:         PixelKind(rec.Kind),
			Link:         int(rec.Link),
		}
		if rec.PixLen > 0 {
			// grow with the stream so a corrupt length cannot force a huge allocation
			var pix bytes.Buffer
			if _, err := io.CopyN(&pix, r, int64(rec.PixLen)); err != nil {
				return nil, fmt.Errorf("sprite %d pixels: %w", i, err)
			}
			s.Pix = pix.Bytes()
		}
	}
	f.recount()

	return f, nil
}
