package vidbatch

import (
	"fmt"

	"gorgonia.org/tensor"
)

// fakeCodec returns solid images without touching the filesystem
type fakeCodec struct {
	// height and width of every natural image
	height, width int
	// scale applied to the natural size
	scale float32
	// sizes overrides the natural size per path
	sizes map[string][2]int
	// fail makes Decode of the path return an error
	fail map[string]bool
	// flat makes Decode of the path return an (H, W) tensor
	flat map[string]bool
	// calls records every decoded path
	calls []string
}

func newFakeCodec(height, width int) *fakeCodec {
	return &fakeCodec{
		height: height,
		width:  width,
		scale:  1,
		sizes:  make(map[string][2]int),
		fail:   make(map[string]bool),
		flat:   make(map[string]bool),
	}
}

func (f *fakeCodec) Decode(path string) (*Image, error) {

	f.calls = append(f.calls, path)

	if f.fail[path] {
		return nil, fmt.Errorf("%w: can not decode %s", ErrData, path)
	}

	h, w := f.height, f.width

	if s, ok := f.sizes[path]; ok {
		h, w = s[0], s[1]
	}

	sh := int(float32(h) * f.scale)
	sw := int(float32(w) * f.scale)

	shape := []int{3, sh, sw}

	if f.flat[path] {
		shape = shape[1:]
	}

	data := make([]float32, tensor.Shape(shape).TotalSize())

	for i := range data {
		data[i] = float32(len(f.calls))
	}

	return &Image{
		Pixels: tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)),
		Height: h,
		Width:  w,
		Scale:  f.scale,
	}, nil
}

// sequence returns the records of every frame of a video segment
func sequence(name string, length, height, width int, boxes ...Box) []VideoRecord {

	pattern := name + "/%06d.JPEG"
	out := make([]VideoRecord, length)

	for i := range out {
		out[i] = VideoRecord{
			Image:       fmt.Sprintf(pattern, i),
			Pattern:     pattern,
			FrameSegLen: length,
			FrameSegID:  i,
			Width:       width,
			Height:      height,
			Boxes:       boxes,
		}
	}

	return out
}

// still returns the record of a standalone image
func still(name string, height, width int, boxes ...Box) VideoRecord {
	return VideoRecord{
		Image:       name + ".JPEG",
		FrameSegLen: 1,
		Width:       width,
		Height:      height,
		Boxes:       boxes,
	}
}
