package vidbatch

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Image is a decoded and preprocessed frame
type Image struct {
	// Pixels is the (C, H, W) float tensor fed to the network
	Pixels *tensor.Dense
	// Height is the natural image height before scaling
	Height int
	// Width is the natural image width before scaling
	Width int
	// Scale is the factor applied to the natural size to produce Pixels
	Scale float32
}

// Info returns the scaled size of the image
func (i *Image) Info() ImageInfo {

	s := i.Pixels.Shape()

	return ImageInfo{
		Height: s[1],
		Width:  s[2],
		Scale:  i.Scale,
	}
}

// Validate checks the pixels are a (C, H, W) tensor
func (i *Image) Validate() error {

	if i == nil || i.Pixels == nil {
		return fmt.Errorf("%w: image has no pixels", ErrShape)
	}

	if s := i.Pixels.Shape(); len(s) != 3 {
		return fmt.Errorf("%w: image pixels must be rank 3 (C, H, W), got shape %v",
			ErrShape, s)
	}

	return nil
}

// ImageCodec decodes a frame from its file path
type ImageCodec interface {
	Decode(path string) (*Image, error)
}

// decodeImage decodes path with codec and checks the result can be batched
func decodeImage(codec ImageCodec, path string) (*Image, error) {

	img, err := codec.Decode(path)

	if err != nil {
		return nil, err
	}

	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("frame %s: %w", path, err)
	}

	return img, nil
}
