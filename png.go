package sff

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// decodePNG decodes an embedded PNG stream. The PNG's own dimensions replace
// whatever the directory declared. PngPaletted yields one index per pixel,
// the RGBA tags yield straight-alpha 8-bit RGBA.
func decodePNG(tag CompressionTag, src []byte) (*Decoded, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: %w: PNG", ErrDecode, ErrEmptyPayload)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: config: %v", ErrDecode, ErrPNGDecode, err)
	}
	_, isPaletted := cfg.ColorModel.(color.Palette)
	if tag == PngPaletted && !isPaletted {
		return nil, fmt.Errorf("%w: %w: tag %s needs an indexed PNG", ErrDecode, ErrPNGColorType, tag)
	}
	kind := KindRGBA
	if tag == PngPaletted {
		kind = KindPaletted
	}
	if _, err := bufferLen(cfg.Width, cfg.Height, kind.BytesPerPixel()); err != nil {
		return nil, fmt.Errorf("%w: PNG %dx%d: %w", ErrDecode, cfg.Width, cfg.Height, err)
	}

	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrDecode, ErrPNGDecode, err)
	}
	b := img.Bounds()
	out := &Decoded{Width: b.Dx(), Height: b.Dy(), Kind: kind}

	if kind == KindPaletted {
		pm, ok := img.(*image.Paletted)
		if !ok {
			return nil, fmt.Errorf("%w: %w: got %T", ErrDecode, ErrPNGColorType, img)
		}
		out.Pix = make([]byte, out.Width*out.Height)
		for y := range out.Height {
			row := pm.Pix[y*pm.Stride : y*pm.Stride+out.Width]
			copy(out.Pix[y*out.Width:], row)
		}
		return out, nil
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != out.Width*4 || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, out.Width, out.Height))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}
	out.Pix = nrgba.Pix

	return out, nil
}
