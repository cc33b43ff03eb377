package anchor

import (
	flatbush "github.com/bmharper/flatbush-go"
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Overlaps returns the len(anchors) x len(gt) matrix of Intersection over
// Union values.  A spatial index over the anchors is searched with each
// ground truth box so only pairs that can intersect are computed, all other
// entries stay zero.  Returns nil if either list is empty
func Overlaps(anchors []Box, gt []GroundTruth) *mat.Dense {

	if len(anchors) == 0 || len(gt) == 0 {
		return nil
	}

	// create spatial index to avoid comparing every anchor with every box.
	// coordinates are widened to whole pixels so the search never misses an
	// intersecting pair
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(anchors))

	for _, a := range anchors {
		fb.Add(floorI32(a.X1), floorI32(a.Y1), ceilI32(a.X2), ceilI32(a.Y2))
	}

	fb.Finish()

	overlaps := mat.NewDense(len(anchors), len(gt), nil)

	for j, g := range gt {
		for _, i := range fb.Search(floorI32(g.X1), floorI32(g.Y1), ceilI32(g.X2), ceilI32(g.Y2)) {
			if iou := anchors[i].IoU(g.Box); iou > 0 {
				overlaps.Set(i, j, float64(iou))
			}
		}
	}

	return overlaps
}

// match holds the per anchor and per ground truth maxima of an overlap
// matrix
type match struct {
	// anchorGT is the ground truth index with the highest overlap per anchor
	anchorGT []int
	// anchorMax is the highest overlap per anchor
	anchorMax []float32
	// gtAnchor is the anchor index with the highest overlap per ground truth
	gtAnchor []int
	// gtMax is the highest overlap per ground truth
	gtMax []float32
}

// matchOverlaps finds the best ground truth for every anchor and the best
// anchor for every ground truth.  Ties resolve to the lowest index
func matchOverlaps(overlaps *mat.Dense) match {

	rows, cols := overlaps.Dims()

	m := match{
		anchorGT:  make([]int, rows),
		anchorMax: make([]float32, rows),
		gtAnchor:  make([]int, cols),
		gtMax:     make([]float32, cols),
	}

	for i := 0; i < rows; i++ {
		row := overlaps.RawRowView(i)
		best := floats.MaxIdx(row)
		m.anchorGT[i] = best
		m.anchorMax[i] = float32(row[best])
	}

	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, overlaps)
		best := floats.MaxIdx(col)
		m.gtAnchor[j] = best
		m.gtMax[j] = float32(col[best])
	}

	return m
}

// floorI32 rounds down to an int32 coordinate
func floorI32(v float32) int32 {
	return int32(math32.Floor(v))
}

// ceilI32 rounds up to an int32 coordinate
func ceilI32(v float32) int32 {
	return int32(math32.Ceil(v))
}
