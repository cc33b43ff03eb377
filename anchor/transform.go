package anchor

import (
	"github.com/chewxy/math32"
)

// Transform returns the regression target (dx, dy, dw, dh) that moves
// anchor onto gt, using center offsets relative to the anchor size and log
// space size ratios
func Transform(anchor, gt Box) [4]float32 {

	aw, ah := anchor.Width(), anchor.Height()
	acx, acy := anchor.Center()

	gw, gh := gt.Width(), gt.Height()
	gcx, gcy := gt.Center()

	return [4]float32{
		(gcx - acx) / aw,
		(gcy - acy) / ah,
		math32.Log(gw / aw),
		math32.Log(gh / ah),
	}
}

// Inverse applies a regression delta to anchor and returns the predicted
// box.  It is the inverse of Transform
func Inverse(anchor Box, delta [4]float32) Box {

	aw, ah := anchor.Width(), anchor.Height()
	acx, acy := anchor.Center()

	cx := delta[0]*aw + acx
	cy := delta[1]*ah + acy
	w := math32.Exp(delta[2]) * aw
	h := math32.Exp(delta[3]) * ah

	return Box{
		X1: cx - 0.5*w,
		Y1: cy - 0.5*h,
		X2: cx + 0.5*w,
		Y2: cy + 0.5*h,
	}
}

// normalize subtracts mean and divides by std componentwise
func normalize(t [4]float32, mean, std [4]float32) [4]float32 {

	for i := range t {
		t[i] = (t[i] - mean[i]) / std[i]
	}

	return t
}
