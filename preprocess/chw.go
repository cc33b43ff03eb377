package preprocess

import (
	"gorgonia.org/tensor"
)

// Means are per channel pixel means in RGB order subtracted from every pixel
type Means [3]float32

// DefaultMeans returns the ImageNet pixel means
func DefaultMeans() Means {
	return Means{123.15, 115.90, 103.06}
}

// InterleavedToCHW converts interleaved 8 bit pixels of an h x w image into a
// (3, padH, padW) float tensor with the means subtracted.  step is the byte
// distance between rows, bpp the bytes per pixel and order the byte offsets
// of the R, G and B components within a pixel.  Padding stays zero
func InterleavedToCHW(pix []uint8, h, w, step, bpp int, order [3]int,
	means Means, padH, padW int) *tensor.Dense {

	plane := padH * padW
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := pix[y*step:]

		for x := 0; x < w; x++ {
			px := row[x*bpp:]
			dst := y*padW + x

			for c := 0; c < 3; c++ {
				data[c*plane+dst] = float32(px[order[c]]) - means[c]
			}
		}
	}

	return tensor.New(tensor.WithShape(3, padH, padW), tensor.WithBacking(data))
}
