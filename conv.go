// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/sff

package sff

const (
	maxUint32 = uint64(^uint32(0))

	// maxPixelBytes caps a single decoded sprite buffer (16384x16384 RGBA).
	maxPixelBytes = 16384 * 16384 * 4
)

// u32FromInt converts an int to a uint32.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > maxUint32 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}

// bufferLen returns width*height*bpp, rejecting negative or oversized buffers.
func bufferLen(width, height, bpp int) (int, error) {
	if width < 0 || height < 0 || bpp < 0 {
		return 0, ErrSizeOverflow
	}
	if width == 0 || height == 0 || bpp == 0 {
		return 0, nil
	}
	if width > maxPixelBytes/height/bpp {
		return 0, ErrSizeOverflow
	}

	return width * height * bpp, nil
}
