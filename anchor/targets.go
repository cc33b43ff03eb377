package anchor

import (
	"gorgonia.org/tensor"
)

// Tensors exports the targets in the layout the detection network consumes.
// label is a flat vector of A*H*W values ordered anchor type first, then
// row, then column.  bbox_target and bbox_weight are (4*A, H, W) with the
// four components of anchor type a stored in channels 4a to 4a+3
func (t *Targets) Tensors() (label, bboxTarget, bboxWeight *tensor.Dense) {

	a, h, w := t.NumAnchors, t.FeatHeight, t.FeatWidth
	plane := h * w

	labels := make([]float32, a*plane)
	targets := make([]float32, 4*a*plane)
	weights := make([]float32, 4*a*plane)

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			cell := row*w + col

			for k := 0; k < a; k++ {
				src := cell*a + k
				labels[k*plane+cell] = float32(t.Labels[src])

				for c := 0; c < 4; c++ {
					dst := (4*k+c)*plane + cell
					targets[dst] = t.BBoxTargets[src][c]
					weights[dst] = t.BBoxWeights[src][c]
				}
			}
		}
	}

	label = tensor.New(tensor.WithShape(a*plane), tensor.WithBacking(labels))
	bboxTarget = tensor.New(tensor.WithShape(4*a, h, w), tensor.WithBacking(targets))
	bboxWeight = tensor.New(tensor.WithShape(4*a, h, w), tensor.WithBacking(weights))

	return label, bboxTarget, bboxWeight
}
