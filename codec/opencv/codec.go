package opencv

import (
	"fmt"

	vidbatch "github.com/swdee/go-vidbatch"
	"github.com/swdee/go-vidbatch/preprocess"
	"gocv.io/x/gocv"
)

// Codec decodes frames with OpenCV.  It owns scratch Mats so a Codec
// must not be shared between loaders running concurrently
type Codec struct {
	// resizer scales the decoded frame
	resizer *Resizer
}

// NewCodec returns an OpenCV backed codec scaling frames by spec
func NewCodec(spec preprocess.ScaleSpec, means preprocess.Means) (*Codec, error) {

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &Codec{
		resizer: NewResizer(spec, means),
	}, nil
}

// Decode reads the image file at path
func (c *Codec) Decode(path string) (*vidbatch.Image, error) {

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("%w: error reading image %s", vidbatch.ErrData, path)
	}

	pixels, err := c.resizer.Resize(img)

	if err != nil {
		return nil, fmt.Errorf("error resizing image %s: %w", path, err)
	}

	return &vidbatch.Image{
		Pixels: pixels,
		Height: img.Rows(),
		Width:  img.Cols(),
		Scale:  c.resizer.ScaleFactor(),
	}, nil
}

// Close frees the OpenCV resources
func (c *Codec) Close() error {
	return c.resizer.Close()
}
