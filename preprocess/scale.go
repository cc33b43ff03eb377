package preprocess

import (
	"fmt"

	"github.com/chewxy/math32"
)

// ScaleSpec defines how a frame is scaled before it is fed to the network.
// The short side is scaled to Target unless that would take the long side
// beyond Max, in which case the long side is scaled to Max
type ScaleSpec struct {
	// Target is the desired length of the short side in pixels
	Target int `yaml:"target"`
	// Max caps the length of the long side in pixels
	Max int `yaml:"max"`
	// Stride pads the scaled size up to a multiple of this value when set
	Stride int `yaml:"stride"`
}

// DefaultScaleSpec returns the detection default of a 600 pixel short side
// and a 1000 pixel long side cap
func DefaultScaleSpec() ScaleSpec {
	return ScaleSpec{
		Target: 600,
		Max:    1000,
	}
}

// Validate checks the ScaleSpec can scale an image
func (s ScaleSpec) Validate() error {

	if s.Target <= 0 || s.Max <= 0 {
		return fmt.Errorf("scale target %d and max %d must be positive", s.Target, s.Max)
	}

	if s.Stride < 0 {
		return fmt.Errorf("scale stride must not be negative, got %d", s.Stride)
	}

	return nil
}

// Compute returns the scale factor for an image of the natural size height x
// width, and the resulting scaled height and width
func (s ScaleSpec) Compute(height, width int) (scale float32, h, w int) {

	short := float32(min(height, width))
	long := float32(max(height, width))

	scale = float32(s.Target) / short

	if math32.Round(scale*long) > float32(s.Max) {
		scale = float32(s.Max) / long
	}

	h = int(math32.Round(float32(height) * scale))
	w = int(math32.Round(float32(width) * scale))

	return scale, max(h, 1), max(w, 1)
}

// Padded returns the size h x w padded up to a multiple of Stride
func (s ScaleSpec) Padded(h, w int) (int, int) {

	if s.Stride <= 1 {
		return h, w
	}

	return roundUp(h, s.Stride), roundUp(w, s.Stride)
}

// roundUp rounds v up to a multiple of m
func roundUp(v, m int) int {
	return (v + m - 1) / m * m
}
