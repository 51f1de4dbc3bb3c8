package sff

import (
	"errors"
	"testing"
)

func TestTagFromCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code    int
		want    CompressionTag
		name    string
		wantErr error
	}{
		{code: 0, want: Raw, name: "raw"},
		{code: -1, want: LegacyPCX, name: "pcx"},
		{code: -2, want: RLE8, name: "rle8"},
		{code: -3, want: RLE5, name: "rle5"},
		{code: -4, want: LZ5, name: "lz5"},
		{code: -10, want: PngPaletted, name: "png8"},
		{code: -11, want: PngRGBA16, name: "png24"},
		{code: -12, want: PngRGBA8, name: "png32"},
		{code: -5, wantErr: ErrUnknownCompression},
		{code: 1, wantErr: ErrUnknownCompression},
	}

	for _, tc := range tests {
		got, err := TagFromCode(tc.code)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("code %d: err = %v", tc.code, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("code %d: got %s, %v", tc.code, got, err)
		}
		if got.Code() != tc.code || got.String() != tc.name {
			t.Fatalf("code %d: Code %d String %s", tc.code, got.Code(), got)
		}
	}

	if got := CompressionTag(99).String(); got != "tag(99)" {
		t.Fatalf("String = %s", got)
	}
	if !PngRGBA16.IsPNG() || LZ5.IsPNG() {
		t.Fatalf("IsPNG mismatch")
	}
}

func TestPixelKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag     CompressionTag
		depth   uint8
		want    PixelKind
		wantErr error
	}{
		{tag: LZ5, depth: 0, want: KindPaletted},
		{tag: PngRGBA16, depth: 24, want: KindRGBA},
		{tag: Raw, depth: 8, want: KindPaletted},
		{tag: Raw, depth: 24, want: KindRGB},
		{tag: Raw, depth: 32, want: KindRGBA},
		{tag: Raw, depth: 5, wantErr: ErrUnsupportedColorDepth},
		{tag: CompressionTag(77), wantErr: ErrUnknownCompression},
	}

	for _, tc := range tests {
		got, err := pixelKind(tc.tag, tc.depth)
		if !errors.Is(err, tc.wantErr) || got != tc.want {
			t.Fatalf("%s/%d: got %s, %v", tc.tag, tc.depth, got, err)
		}
	}

	if KindRGB.BytesPerPixel() != 3 || KindNone.BytesPerPixel() != 0 || KindRGBA.String() != "rgba" {
		t.Fatalf("kind helpers mismatch")
	}
}
