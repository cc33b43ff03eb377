// Package opencv decodes and scales frames with OpenCV through gocv.
// Importing it requires the OpenCV libraries
package opencv

import (
	"fmt"
	"image"

	"github.com/swdee/go-vidbatch/preprocess"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// Resizer defines the struct used for scaling decoded frames and converting
// them into network input tensors with OpenCV
type Resizer struct {
	// spec defines the target size
	spec preprocess.ScaleSpec
	// means are subtracted from every pixel
	means preprocess.Means
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// rgbMat holds the color converted image
	rgbMat gocv.Mat
	// scale of the last resize
	scale float32
	// resize dimensions of the last resize
	resizeW int
	resizeH int
}

// NewResizer returns a resizer used for scaling BGR frames according to the
// given ScaleSpec.  Its scratch Mats are reused between calls so a Resizer
// must not be shared between goroutines
func NewResizer(spec preprocess.ScaleSpec, means preprocess.Means) *Resizer {
	return &Resizer{
		spec:    spec,
		means:   means,
		tempMat: gocv.NewMat(),
		rgbMat:  gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {

	if err := r.tempMat.Close(); err != nil {
		return err
	}

	return r.rgbMat.Close()
}

// Resize scales the BGR src Mat and returns the (3, H, W) RGB float tensor
// with the pixel means subtracted
func (r *Resizer) Resize(src gocv.Mat) (*tensor.Dense, error) {

	if src.Empty() {
		return nil, fmt.Errorf("source image is empty")
	}

	if src.Channels() != 3 {
		return nil, fmt.Errorf("expected 3 channel image, got %d", src.Channels())
	}

	r.scale, r.resizeH, r.resizeW = r.spec.Compute(src.Rows(), src.Cols())

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationLinear)

	gocv.CvtColor(r.tempMat, &r.rgbMat, gocv.ColorBGRToRGB)

	pix, err := r.rgbMat.DataPtrUint8()

	if err != nil {
		return nil, fmt.Errorf("error accessing resized pixels: %w", err)
	}

	padH, padW := r.spec.Padded(r.resizeH, r.resizeW)

	return preprocess.InterleavedToCHW(pix, r.resizeH, r.resizeW, r.rgbMat.Step(), 3,
		[3]int{0, 1, 2}, r.means, padH, padW), nil
}

// ScaleFactor returns the scale factor used in the last resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// ResizedSize returns the height and width of the last resize before stride
// padding
func (r *Resizer) ResizedSize() (int, int) {
	return r.resizeH, r.resizeW
}
