package preprocess

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"gorgonia.org/tensor"
)

// ScaleImage scales a decoded Go image according to spec with bilinear
// interpolation and returns the (3, H, W) RGB float tensor with means
// subtracted, along with the scale factor applied.  It is the pure Go
// counterpart of Resizer for environments without OpenCV
func ScaleImage(src image.Image, spec ScaleSpec, means Means) (*tensor.Dense, float32, error) {

	b := src.Bounds()

	if b.Empty() {
		return nil, 0, fmt.Errorf("source image is empty")
	}

	scale, h, w := spec.Compute(b.Dy(), b.Dx())

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	padH, padW := spec.Padded(h, w)

	return InterleavedToCHW(dst.Pix, h, w, dst.Stride, 4,
		[3]int{0, 1, 2}, means, padH, padW), scale, nil
}
