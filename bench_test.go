package sff

import (
	"bytes"
	"io"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/bcn"
)

// benchPixels returns an indexed test pattern with short runs of colors
// below 32, so every codec in the pack can represent it.
func benchPixels(side, seed int) []byte {
	pix := make([]byte, side*side)
	for i := range pix {
		pix[i] = byte((i/5 + seed) % 32)
	}

	return pix
}

// encodeLZ5Runs encodes pix using only short color-run packets.
func encodeLZ5Runs(pix []byte) []byte {
	var out []byte
	packets := 0
	for i := 0; i < len(pix); {
		run := 1
		for i+run < len(pix) && pix[i+run] == pix[i] && run < 7 {
			run++
		}
		if packets%8 == 0 {
			out = append(out, 0)
		}
		out = append(out, byte(run<<5)|pix[i]&0x1f)
		packets++
		i += run
	}

	return out
}

// buildBenchV2 builds a v2 container of n side x side sprites cycling
// through raw, RLE8, LZ5 and linked entries.
func buildBenchV2(t testing.TB, n, side int) []byte {
	t.Helper()

	sprites := make([]testSprite, n)
	for i := range sprites {
		pix := benchPixels(side, i)
		s := testSprite{group: uint16(i / 10), number: uint16(i % 10), width: uint16(side), height: uint16(side), depth: 8}
		switch i % 4 {
		case 0:
			s.data = pix
		case 1:
			s.format, s.data = 2, encodeRLE8(pix)
		case 2:
			s.format, s.data = 4, encodeLZ5Runs(pix)
		case 3:
			s.link = uint16(i - 1)
		}
		sprites[i] = s
	}

	return buildV2(t, testVersionV2, []testPalette{{rgba: grayRGBA(255)}}, sprites)
}

func BenchmarkLoad(b *testing.B) {
	data := buildBenchV2(b, 256, 64)
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()

	for b.Loop() {
		if _, err := Load(bytes.NewReader(data)); err != nil {
			b.Fatalf("Load: %v", err)
		}
	}
}

func BenchmarkLoadWorkers(b *testing.B) {
	data := buildBenchV2(b, 256, 64)
	opts := &LoadOptions{Workers: 4}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()

	for b.Loop() {
		if _, err := LoadWithOptions(bytes.NewReader(data), opts); err != nil {
			b.Fatalf("LoadWithOptions: %v", err)
		}
	}
}

func BenchmarkDecodeLZ5(b *testing.B) {
	const side = 256
	src := encodeLZ5Runs(benchPixels(side, 3))
	b.SetBytes(side * side)
	b.ReportAllocs()

	for b.Loop() {
		if _, err := decodeLZ5(src, side, side); err != nil {
			b.Fatalf("decodeLZ5: %v", err)
		}
	}
}

func BenchmarkDecodeRLE8(b *testing.B) {
	const side = 256
	src := encodeRLE8(benchPixels(side, 3))
	b.SetBytes(side * side)
	b.ReportAllocs()

	for b.Loop() {
		if _, err := decodeRLE8(src, side, side); err != nil {
			b.Fatalf("decodeRLE8: %v", err)
		}
	}
}

func BenchmarkWriteCache(b *testing.B) {
	f, err := Load(bytes.NewReader(buildBenchV2(b, 128, 64)))
	if err != nil {
		b.Fatalf("Load: %v", err)
	}
	opts := &CacheOptions{Level: lz4.Level1}
	b.ReportAllocs()

	for b.Loop() {
		if err := f.WriteCache(io.Discard, opts); err != nil {
			b.Fatalf("WriteCache: %v", err)
		}
	}
}

func BenchmarkWriteSpriteDDS(b *testing.B) {
	benchWriteSpriteDDS(b, &DDSOptions{Format: bcn.FormatBGRA8})
}

func BenchmarkWriteSpriteDDSDXT5(b *testing.B) {
	benchWriteSpriteDDS(b, &DDSOptions{
		Format:        bcn.FormatDXT5,
		MaxMipMaps:    1,
		EncodeOptions: &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast},
	})
}

func benchWriteSpriteDDS(b *testing.B, opts *DDSOptions) {
	b.Helper()

	f, err := Load(bytes.NewReader(buildBenchV2(b, 1, 128)))
	if err != nil {
		b.Fatalf("Load: %v", err)
	}
	b.ReportAllocs()

	for b.Loop() {
		if err := f.WriteSpriteDDS(io.Discard, 0, opts); err != nil {
			b.Fatalf("WriteSpriteDDS: %v", err)
		}
	}
}
