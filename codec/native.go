// Package codec provides pure Go image decoders that turn frame files into
// network input tensors for the loaders.  The OpenCV decoder lives in the
// opencv subpackage
package codec

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	vidbatch "github.com/swdee/go-vidbatch"
	"github.com/swdee/go-vidbatch/preprocess"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Native decodes frames with the Go image packages, supporting JPEG, PNG,
// BMP, TIFF and WebP files
type Native struct {
	// spec defines the target size
	spec preprocess.ScaleSpec
	// means are subtracted from every pixel
	means preprocess.Means
}

// NewNative returns a pure Go codec scaling frames by spec
func NewNative(spec preprocess.ScaleSpec, means preprocess.Means) (*Native, error) {

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &Native{
		spec:  spec,
		means: means,
	}, nil
}

// Decode reads the image file at path
func (n *Native) Decode(path string) (*vidbatch.Image, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("%w: error opening image: %w", vidbatch.ErrData, err)
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, fmt.Errorf("%w: error decoding image %s: %w", vidbatch.ErrData, path, err)
	}

	pixels, scale, err := preprocess.ScaleImage(img, n.spec, n.means)

	if err != nil {
		return nil, fmt.Errorf("error scaling image %s: %w", path, err)
	}

	b := img.Bounds()

	return &vidbatch.Image{
		Pixels: pixels,
		Height: b.Dy(),
		Width:  b.Dx(),
		Scale:  scale,
	}, nil
}
