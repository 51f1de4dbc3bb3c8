package sff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testPalette describes one v2 palette record; a nil rgba writes a
// zero-size entry that links to palette link.
type testPalette struct {
	group, number uint16
	link          uint16
	rgba          []byte
}

// testSprite describes one v2 directory record. Compressed payloads get
// their 4-byte length prefix from the builder; nil data writes a linked entry.
type testSprite struct {
	group, number uint16
	width, height uint16
	x, y          int16
	link          uint16
	format        uint8
	depth         uint8
	pal           uint16
	flags         uint16
	data          []byte
}

func le(buf *bytes.Buffer, vs ...any) {
	for _, v := range vs {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
}

// buildV2 lays out a v2 container: header, palette directory, sprite
// directory, the local data block (palettes and sprites with flags bit 0
// clear) and the global data block (sprites with flags bit 0 set).
func buildV2(t testing.TB, version [4]byte, pals []testPalette, sprites []testSprite) []byte {
	t.Helper()

	const headerSize = 64
	palDir := uint32(headerSize)
	sprDir := palDir + uint32(len(pals))*paletteEntrySizeV2
	lofs := sprDir + uint32(len(sprites))*spriteEntrySizeV2

	var data bytes.Buffer
	palOffsets := make([]uint32, len(pals))
	for i, p := range pals {
		palOffsets[i] = uint32(data.Len())
		data.Write(p.rgba)
	}
	var global bytes.Buffer
	sprOffsets := make([]uint32, len(sprites))
	sprSizes := make([]uint32, len(sprites))
	for i, s := range sprites {
		if s.data == nil {
			continue
		}
		block := &data
		if s.flags&1 != 0 {
			block = &global
		}
		sprOffsets[i] = uint32(block.Len())
		start := block.Len()
		if s.format != 0 {
			le(block, uint32(len(s.data)))
		}
		block.Write(s.data)
		sprSizes[i] = uint32(block.Len() - start)
	}
	tofs := lofs + uint32(data.Len())

	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write(version[:])
	le(&buf, uint32(0), [4]uint32{})
	le(&buf, sprDir, uint32(len(sprites)), palDir, uint32(len(pals)), lofs, uint32(0), tofs)
	if buf.Len() != headerSize {
		t.Fatalf("header is %d bytes", buf.Len())
	}

	for i, p := range pals {
		size := uint32(len(p.rgba))
		le(&buf, p.group, p.number, uint16(PaletteSize), p.link, palOffsets[i], size)
	}
	for i, s := range sprites {
		le(&buf, s.group, s.number, s.width, s.height, s.x, s.y, s.link, s.format, s.depth,
			sprOffsets[i], sprSizes[i], s.pal, s.flags)
	}
	buf.Write(data.Bytes())
	buf.Write(global.Bytes())

	return buf.Bytes()
}

var testVersionV2 = [4]byte{0, 1, 0, 2}

// testSpriteV1 describes one legacy sprite; nil pcx writes a linked entry.
type testSpriteV1 struct {
	group, number uint16
	x, y          int16
	link          uint16
	samePalette   bool
	pcx           []byte
}

// buildV1 lays out a legacy container with chained 32-byte subheaders each
// followed by its PCX block.
func buildV1(t testing.TB, sprites []testSpriteV1) []byte {
	t.Helper()

	const first = 32
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write([]byte{0, 1, 0, 1})
	le(&buf, uint32(0), uint32(len(sprites)), uint32(first))
	for buf.Len() < first {
		buf.WriteByte(0)
	}

	for i, s := range sprites {
		next := uint32(0)
		if i < len(sprites)-1 {
			next = uint32(buf.Len() + 32 + len(s.pcx))
		}
		same := uint8(0)
		if s.samePalette {
			same = 1
		}
		le(&buf, next, uint32(len(s.pcx)), s.x, s.y, s.group, s.number, s.link, same)
		buf.Write(make([]byte, 13))
		buf.Write(s.pcx)
	}

	return buf.Bytes()
}

// pcxBlock builds a PCX block; a nil palette omits the 768-byte tail.
func pcxBlock(width, height int, bpp uint8, rle []byte, palette []byte) []byte {
	h := make([]byte, pcxHeaderSize)
	h[0], h[1], h[2], h[3] = 10, 5, 1, bpp
	binary.LittleEndian.PutUint16(h[8:], uint16(width-1))
	binary.LittleEndian.PutUint16(h[10:], uint16(height-1))
	binary.LittleEndian.PutUint16(h[66:], uint16(width))
	out := append(h, rle...)

	return append(out, palette...)
}

// rgbRamp returns 768 RGB bytes where entry i is (i, 255-i, seed).
func rgbRamp(seed byte) []byte {
	out := make([]byte, PaletteSize*3)
	for i := range PaletteSize {
		out[i*3], out[i*3+1], out[i*3+2] = byte(i), byte(255-i), seed
	}

	return out
}

// grayRGBA returns a 1024-byte v2 palette where entry i is (i, i, i, alpha).
func grayRGBA(alpha byte) []byte {
	out := make([]byte, PaletteSize*4)
	for i := range PaletteSize {
		out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = byte(i), byte(i), byte(i), alpha
	}

	return out
}

func mustLoad(t testing.TB, data []byte, opts *LoadOptions) *File {
	t.Helper()

	f, err := LoadWithOptions(bytes.NewReader(data), opts)
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}

	return f
}
