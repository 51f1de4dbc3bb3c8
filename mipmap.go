package sff

// maxDDSMipLevels caps exported mip chains.
const maxDDSMipLevels = 11

// mipLevels returns how many levels a full chain for width x height has,
// limited to limit when limit > 0.
func mipLevels(width, height, limit int) int {
	levels := 1
	for w, h := width, height; w > 1 || h > 1; levels++ {
		w, h = max(w/2, 1), max(h/2, 1)
	}
	levels = min(levels, maxDDSMipLevels)
	if limit > 0 {
		levels = min(levels, limit)
	}

	return levels
}

// mipDimension returns a base dimension reduced to a mip level.
func mipDimension(base, level int) int {
	return max(base>>level, 1)
}
