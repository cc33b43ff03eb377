package anchor

import (
	"github.com/chewxy/math32"
)

// BaseAnchors returns the anchors of a single grid cell centered at the
// origin.  Ratios are iterated in the outer loop and scales in the inner
// loop, a ratio is height divided by width so the anchor area stays
// (scale*stride)^2
func BaseAnchors(stride int, scales, ratios []float32) []Box {

	base := make([]Box, 0, len(scales)*len(ratios))

	for _, r := range ratios {
		sr := math32.Sqrt(r)

		for _, s := range scales {
			size := s * float32(stride)
			hw := size / sr / 2
			hh := size * sr / 2

			base = append(base, Box{X1: -hw, Y1: -hh, X2: hw, Y2: hh})
		}
	}

	return base
}

// Generate returns every anchor of a height x width feature grid.  Cells are
// visited in row major order and each cell contributes one anchor per base
// anchor, centered on the middle of the cell's receptive field
func Generate(height, width, stride int, scales, ratios []float32) []Box {

	base := BaseAnchors(stride, scales, ratios)
	anchors := make([]Box, 0, height*width*len(base))
	half := float32(stride) / 2

	for row := 0; row < height; row++ {
		cy := float32(row*stride) + half

		for col := 0; col < width; col++ {
			cx := float32(col*stride) + half

			for _, b := range base {
				anchors = append(anchors, Box{
					X1: cx + b.X1,
					Y1: cy + b.Y1,
					X2: cx + b.X2,
					Y2: cy + b.Y2,
				})
			}
		}
	}

	return anchors
}
