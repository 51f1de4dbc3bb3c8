package sff

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/woozymasta/bcn"
	xdraw "golang.org/x/image/draw"
)

// DDSOptions configures DDS export.
type DDSOptions struct {
	// Format is the DDS pixel format; bcn.FormatUnknown selects BGRA8.
	Format bcn.Format
	// MaxMipMaps limits the mip chain; 0 writes the full chain, 1 only the base.
	MaxMipMaps int
	// EncodeOptions are passed to the BCn encoder (e.g. QualityLevel, Workers).
	EncodeOptions *bcn.EncodeOptions
}

// WritePNG encodes sprite i as PNG. Paletted sprites keep their indices and
// palette.
func (f *File) WritePNG(w io.Writer, i int) error {
	img, err := f.Image(i)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: sprite %d: %v", ErrEncodeImage, i, err)
	}

	return nil
}

// SavePNG writes sprite i to a PNG file.
func (f *File) SavePNG(path string, i int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() { _ = out.Close() }()

	return f.WritePNG(out, i)
}

// WriteSpriteDDS encodes sprite i as a DDS texture.
func (f *File) WriteSpriteDDS(w io.Writer, i int, opts *DDSOptions) error {
	img, err := f.Image(i)
	if err != nil {
		return err
	}

	return WriteDDS(w, img, opts)
}

// WriteDDS encodes img as a DDS texture with an optional mip chain.
func WriteDDS(w io.Writer, img image.Image, opts *DDSOptions) error {
	if opts == nil {
		opts = &DDSOptions{Format: bcn.FormatBGRA8}
	}
	format := opts.Format
	if format == bcn.FormatUnknown {
		format = bcn.FormatBGRA8
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	levels := mipLevels(width, height, opts.MaxMipMaps)

	mips := bcn.GenerateMipmaps(img, false)
	if len(mips) > levels {
		mips = mips[:levels]
	}

	payloads := make([][]byte, len(mips))
	for level, mip := range mips {
		data, _, _, err := bcn.EncodeImageWithOptions(mip, format, opts.EncodeOptions)
		if err != nil {
			return fmt.Errorf("%w: mip %d: %v", ErrEncodeImage, level, err)
		}
		want := ddsLevelSize(format, mipDimension(width, level), mipDimension(height, level))
		if want <= 0 || len(data) != want {
			return fmt.Errorf("%w: mip %d: format %v payload %d bytes, want %d", ErrInvalidFormat, level, format, len(data), want)
		}
		payloads[level] = data
	}

	header, err := ddsHeader(width, height, len(payloads), format)
	if err != nil {
		return err
	}

	if err := bcn.WriteDDSMagic(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSMagic, err)
	}
	if err := bcn.WriteDDSHeader(w, header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSHeader, err)
	}
	for level, data := range payloads {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: mip %d: %v", ErrWriteDDSData, level, err)
		}
	}

	return nil
}

// ddsFourCC holds the FourCC of the block compressed formats export supports.
var ddsFourCC = map[bcn.Format]uint32{
	bcn.FormatDXT1: fourCC("DXT1"),
	bcn.FormatDXT3: fourCC("DXT3"),
	bcn.FormatDXT5: fourCC("DXT5"),
	bcn.FormatBC4:  fourCC("ATI1"),
	bcn.FormatBC5:  fourCC("ATI2"),
}

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// ddsLevelSize returns the payload size of one level, or -1 for formats
// export does not write.
func ddsLevelSize(format bcn.Format, width, height int) int {
	blocks := ((width + 3) / 4) * ((height + 3) / 4)
	switch format {
	case bcn.FormatDXT1, bcn.FormatBC4:
		return blocks * 8
	case bcn.FormatDXT3, bcn.FormatDXT5, bcn.FormatBC5:
		return blocks * 16
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return width * height * 4
	}

	return -1
}

func ddsHeader(width, height, levels int, format bcn.Format) (*bcn.DDSHeader, error) {
	w32, err := u32FromInt(width)
	if err != nil {
		return nil, err
	}
	h32, err := u32FromInt(height)
	if err != nil {
		return nil, err
	}
	l32, err := u32FromInt(levels)
	if err != nil {
		return nil, err
	}

	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat),
		Height:      h32,
		Width:       w32,
		Depth:       1,
		MipMapCount: l32,
		Caps:        uint32(bcn.DDSCapsTexture),
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	if levels > 1 {
		hdr.Flags |= bcn.DDSFlagMipmapCount
		hdr.Caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	if cc, ok := ddsFourCC[format]; ok {
		linear, err := u32FromInt(ddsLevelSize(format, width, height))
		if err != nil {
			return nil, err
		}
		hdr.Flags |= bcn.DDSFlagLinearSize
		hdr.PitchOrLinearSize = linear
		hdr.PixelFormat.Flags = bcn.DDSPFFourCC
		hdr.PixelFormat.FourCC = cc
		return hdr, nil
	}

	var rMask, bMask uint32
	switch format {
	case bcn.FormatRGBA8:
		rMask, bMask = 0x000000ff, 0x00ff0000
	case bcn.FormatBGRA8:
		rMask, bMask = 0x00ff0000, 0x000000ff
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}
	hdr.Flags |= bcn.DDSFlagPitch
	hdr.PitchOrLinearSize = w32 * 4
	hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
	hdr.PixelFormat.RGBBitCount = 32
	hdr.PixelFormat.RBitMask = rMask
	hdr.PixelFormat.GBitMask = 0x0000ff00
	hdr.PixelFormat.BBitMask = bMask
	hdr.PixelFormat.ABitMask = 0xff000000

	return hdr, nil
}

// Thumbnail scales img so its longer side is at most maxSide, using
// nearest-neighbour sampling to keep pixel art crisp. Smaller images are
// returned as an RGBA copy.
func Thumbnail(img image.Image, maxSide int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			w, h = maxSide, max(h*maxSide/w, 1)
		} else {
			w, h = max(w*maxSide/h, 1), maxSide
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	return dst
}
