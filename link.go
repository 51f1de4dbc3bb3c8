package sff

import (
	"fmt"

	"github.com/golang/glog"
)

// resolveLink fills sprites[i] from the earlier sprite it links to.
// A link that does not point strictly backwards leaves an empty sprite with
// palette 0 and returns a warning.
func resolveLink(sprites []Sprite, i, link int, offset int64) *Warning {
	s := &sprites[i]
	s.Link = link
	if link >= 0 && link < i {
		glog.V(2).Infof("sprite %d (%d,%d) uses sprite %d", i, s.Group, s.Number, link)
		s.copyFrom(&sprites[link])
		return nil
	}

	s.PaletteIndex = 0
	s.Pix = nil
	s.Kind = KindNone
	s.Width, s.Height = 0, 0
	w := &Warning{
		Sprite: i,
		Offset: offset,
		Err:    fmt.Errorf("%w: sprite %d links %d", ErrBrokenLink, i, link),
	}
	glog.Warningf("%v", w)

	return w
}
