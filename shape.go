package vidbatch

import (
	"fmt"
)

// FeatureShapeOracle maps the shape of a stacked data tensor (N, C, H, W) to
// the height and width of the feature map the anchors are placed on
type FeatureShapeOracle interface {
	FeatureShape(dataShape []int) (height, width int, err error)
}

// StrideOracle is a FeatureShapeOracle for a backbone that downsamples its
// input by a fixed stride, rounding partial cells up
type StrideOracle struct {
	// Stride is the input pixels per feature cell
	Stride int
}

// FeatureShape returns the feature grid size of a (N, C, H, W) data shape
func (s StrideOracle) FeatureShape(dataShape []int) (int, int, error) {

	if s.Stride <= 0 {
		return 0, 0, fmt.Errorf("%w: stride must be positive, got %d",
			ErrConfiguration, s.Stride)
	}

	if len(dataShape) != 4 {
		return 0, 0, fmt.Errorf("%w: expected data shape (N,C,H,W), got %v",
			ErrShape, dataShape)
	}

	h, w := dataShape[2], dataShape[3]

	if h <= 0 || w <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid data size %dx%d", ErrShape, h, w)
	}

	return (h + s.Stride - 1) / s.Stride, (w + s.Stride - 1) / s.Stride, nil
}
