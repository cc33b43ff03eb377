package anchor

import (
	"github.com/chewxy/math32"
)

// Box is an axis aligned box with continuous corner coordinates
type Box struct {
	X1 float32
	Y1 float32
	X2 float32
	Y2 float32
}

// Width returns the width of the box
func (b Box) Width() float32 {
	return b.X2 - b.X1
}

// Height returns the height of the box
func (b Box) Height() float32 {
	return b.Y2 - b.Y1
}

// Area returns the area of the box, zero for degenerate boxes
func (b Box) Area() float32 {
	return math32.Max(0, b.Width()) * math32.Max(0, b.Height())
}

// Center returns the center point of the box
func (b Box) Center() (float32, float32) {
	return b.X1 + 0.5*b.Width(), b.Y1 + 0.5*b.Height()
}

// IoU calculates the Intersection over Union with another box
func (b Box) IoU(o Box) float32 {

	iw := math32.Min(b.X2, o.X2) - math32.Max(b.X1, o.X1)

	if iw <= 0 {
		return 0
	}

	ih := math32.Min(b.Y2, o.Y2) - math32.Max(b.Y1, o.Y1)

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := b.Area() + o.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// Inside returns true if the box lies within an image of the given size,
// allowing it to extend border pixels beyond each edge
func (b Box) Inside(height, width, border float32) bool {
	return b.X1 >= -border && b.Y1 >= -border &&
		b.X2 <= width+border && b.Y2 <= height+border
}

// GroundTruth is a ground truth box in scaled image coordinates
type GroundTruth struct {
	Box
	Class int
}
