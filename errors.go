package sff

import "errors"

var (
	// ErrInvalidMagic indicates the file does not start with the SFF signature.
	ErrInvalidMagic = errors.New("invalid SFF magic")
	// ErrUnsupportedVersion indicates a version variant other than 1 or 2.
	ErrUnsupportedVersion = errors.New("unsupported SFF version")
	// ErrTruncatedRead indicates the stream ended before a required field.
	ErrTruncatedRead = errors.New("truncated read")
	// ErrInvalidBitDepth indicates a PCX sub-header with a depth other than 8.
	ErrInvalidBitDepth = errors.New("invalid PCX bit depth")
	// ErrDecode indicates a codec failed to produce pixels.
	ErrDecode = errors.New("decode failed")
	// ErrBrokenLink indicates a linked sprite that does not point backwards.
	ErrBrokenLink = errors.New("broken sprite link")
	// ErrShortPixelData indicates decoded pixels were zero padded.
	ErrShortPixelData = errors.New("short pixel data")
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrOpenFile indicates SFF file open failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrSeek indicates a seek inside the container failed.
	ErrSeek = errors.New("seek failed")
	// ErrReadHeader indicates the container header could not be read.
	ErrReadHeader = errors.New("reading header failed")
	// ErrReadPalette indicates a palette entry could not be read.
	ErrReadPalette = errors.New("reading palette failed")
	// ErrReadSprite indicates a sprite entry could not be read.
	ErrReadSprite = errors.New("reading sprite failed")
	// ErrDecodeSprite indicates a sprite payload could not be decoded.
	ErrDecodeSprite = errors.New("decoding sprite failed")
	// ErrEmptyPayload indicates a compressed payload with no bytes.
	ErrEmptyPayload = errors.New("empty compressed payload")
	// ErrUnknownCompression indicates an unknown or misplaced compression code.
	ErrUnknownCompression = errors.New("unknown compression")
	// ErrUnsupportedColorDepth indicates a raw sprite depth that cannot be mapped.
	ErrUnsupportedColorDepth = errors.New("unsupported color depth")
	// ErrPNGColorType indicates an embedded PNG that does not match its tag.
	ErrPNGColorType = errors.New("PNG color type mismatch")
	// ErrPNGDecode indicates the embedded PNG stream failed to decode.
	ErrPNGDecode = errors.New("PNG decode failed")
	// ErrSpriteIndex indicates a sprite index out of range.
	ErrSpriteIndex = errors.New("sprite index out of range")
	// ErrPaletteIndex indicates a palette index out of range.
	ErrPaletteIndex = errors.New("palette index out of range")
	// ErrEmptySprite indicates a sprite without pixel data.
	ErrEmptySprite = errors.New("sprite has no pixels")
	// ErrInvalidFormat indicates an unsupported export format.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrEncodeImage indicates image encoding failed.
	ErrEncodeImage = errors.New("encode image failed")
	// ErrReadACT indicates an ACT palette could not be read.
	ErrReadACT = errors.New("reading ACT palette failed")
	// ErrWriteACT indicates an ACT palette could not be written.
	ErrWriteACT = errors.New("writing ACT palette failed")
	// ErrWriteDDSMagic indicates DDS magic write failed.
	ErrWriteDDSMagic = errors.New("writing DDS magic failed")
	// ErrWriteDDSHeader indicates DDS header write failed.
	ErrWriteDDSHeader = errors.New("writing DDS header failed")
	// ErrWriteDDSData indicates DDS payload write failed.
	ErrWriteDDSData = errors.New("writing DDS data failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrInvalidCache indicates a snapshot with a bad signature or layout.
	ErrInvalidCache = errors.New("invalid cache")
	// ErrWriteCache indicates a snapshot could not be written.
	ErrWriteCache = errors.New("writing cache failed")
	// ErrReadCache indicates a snapshot could not be read.
	ErrReadCache = errors.New("reading cache failed")
)
