package sff

import (
	"fmt"
	"image"
	"image/color"
)

// Sprite is one decoded directory entry.
type Sprite struct {
	Group  uint16
	Number uint16

	Width  int
	Height int

	// OffsetX and OffsetY locate the anchor point inside the image.
	OffsetX int16
	OffsetY int16

	// PaletteIndex indexes File.Palettes; valid only for paletted sprites.
	PaletteIndex int

	Tag        CompressionTag
	ColorDepth uint8
	Kind       PixelKind

	// Pix is the decoded buffer, Width*Height*Kind.BytesPerPixel() bytes long.
	Pix []byte

	// Link is the directory link of a zero-size entry, or -1 for sprites
	// with their own data. A linked sprite copies everything from its
	// target except Group and Number, which stay its own.
	Link int
}

// IsPaletted reports whether Pix holds palette indices.
func (s *Sprite) IsPaletted() bool {
	return s.Kind == KindPaletted
}

// IsRGBA reports whether Pix holds direct color (RGB or RGBA) pixels.
func (s *Sprite) IsRGBA() bool {
	return s.Kind == KindRGB || s.Kind == KindRGBA
}

// BytesPerPixel returns the stride of one pixel in Pix.
func (s *Sprite) BytesPerPixel() int {
	return s.Kind.BytesPerPixel()
}

// IsLinked reports whether the sprite reuses an earlier entry's data.
func (s *Sprite) IsLinked() bool {
	return s.Link >= 0
}

// Empty reports whether the sprite has no pixels.
func (s *Sprite) Empty() bool {
	return len(s.Pix) == 0
}

// copyFrom copies every decoded attribute of src, with an independent pixel
// buffer. Group and Number stay those of the receiving entry.
func (s *Sprite) copyFrom(src *Sprite) {
	s.Width, s.Height = src.Width, src.Height
	s.OffsetX, s.OffsetY = src.OffsetX, src.OffsetY
	s.PaletteIndex = src.PaletteIndex
	s.Tag = src.Tag
	s.ColorDepth = src.ColorDepth
	s.Kind = src.Kind
	s.Pix = append([]byte(nil), src.Pix...)
}

// Image returns the sprite as an image. Paletted sprites become
// *image.Paletted using pal; direct color sprites become *image.NRGBA.
// The returned image shares Pix with the sprite for paletted and RGBA kinds.
func (s *Sprite) Image(pal *Palette) (image.Image, error) {
	if s.Empty() {
		return nil, fmt.Errorf("%w: %d,%d", ErrEmptySprite, s.Group, s.Number)
	}

	rect := image.Rect(0, 0, s.Width, s.Height)
	switch s.Kind {
	case KindPaletted:
		var cp color.Palette
		if pal != nil {
			cp = pal.ColorPalette()
		} else {
			cp = grayPalette()
		}
		return &image.Paletted{Pix: s.Pix, Stride: s.Width, Rect: rect, Palette: cp}, nil
	case KindRGBA:
		return &image.NRGBA{Pix: s.Pix, Stride: s.Width * 4, Rect: rect}, nil
	case KindRGB:
		img := image.NewNRGBA(rect)
		for i, j := 0, 0; i+2 < len(s.Pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
			img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = s.Pix[i], s.Pix[i+1], s.Pix[i+2], 255
		}
		return img, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, s.Kind)
}

// grayPalette is the fallback when a paletted sprite has no table.
func grayPalette() color.Palette {
	p := make(color.Palette, PaletteSize)
	for i := range p {
		// #nosec G115 -- i < 256.
		p[i] = color.Gray{Y: uint8(i)}
	}

	return p
}
