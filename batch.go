package vidbatch

import (
	"fmt"
	"sort"

	"gorgonia.org/tensor"
)

// KeyFrameFlag tells the consumer of an inference batch how to treat its
// per sequence feature caches
type KeyFrameFlag int

const (
	// KeyFrameNone is used for training batches
	KeyFrameNone KeyFrameFlag = -1
	// KeyFrameNew marks the first frame of a sequence
	KeyFrameNew KeyFrameFlag = 0
	// KeyFrameTransition is raised once after the last frame of a sequence
	// has been emitted, caches of the finished sequence should be flushed
	KeyFrameTransition KeyFrameFlag = 1
	// KeyFramePropagate marks every following frame of a sequence
	KeyFramePropagate KeyFrameFlag = 2
)

// String returns a readable description of the KeyFrameFlag
func (k KeyFrameFlag) String() string {
	switch k {
	case KeyFrameNone:
		return "NONE"
	case KeyFrameNew:
		return "NEW"
	case KeyFrameTransition:
		return "TRANSITION"
	case KeyFramePropagate:
		return "PROPAGATE"
	default:
		return "UNKNOWN"
	}
}

// ImageInfo is the size of a sample's image after scaling, and the scale
// factor applied to the natural image
type ImageInfo struct {
	Height int
	Width  int
	Scale  float32
}

// Tensor returns the info as the (height, width, scale) vector fed to the
// network
func (i ImageInfo) Tensor() *tensor.Dense {
	return VectorTensor(float32(i.Height), float32(i.Width), i.Scale)
}

// Batch is one step's worth of stacked samples
type Batch struct {
	// Data are the input tensors by name, first dimension is the sample count
	Data map[string]*tensor.Dense
	// Label are the training target tensors by name, nil for inference
	Label map[string]*tensor.Dense
	// Pad is the number of trailing invalid samples in the final batch of an
	// epoch
	Pad int
	// Index is the ordinal of the batch within the epoch
	Index int
	// KeyFrameFlag is set on inference batches
	KeyFrameFlag KeyFrameFlag
	// Transition is true on the inference batch holding the last frame of a
	// sequence
	Transition bool
	// Info holds every sample's image info
	Info []ImageInfo
	// Frames holds every sample's resolved frame context
	Frames []FrameContext
}

// Size returns the number of samples stacked in the batch
func (b *Batch) Size() int {
	return len(b.Info)
}

// DataNames returns the sorted names of the data tensors
func (b *Batch) DataNames() []string {
	return sortedNames(b.Data)
}

// LabelNames returns the sorted names of the label tensors
func (b *Batch) LabelNames() []string {
	return sortedNames(b.Label)
}

// Float16 returns the named data tensor converted to IEEE 754 half precision
// bits, for feeding accelerators that take float16 input
func (b *Batch) Float16(name string) ([]uint16, error) {

	t, ok := b.Data[name]

	if !ok {
		return nil, fmt.Errorf("batch has no data tensor %q", name)
	}

	return convertFloat32BufferToFloat16(Float32s(t)), nil
}

// sortedNames returns the keys of a tensor map in sorted order
func sortedNames(m map[string]*tensor.Dense) []string {

	names := make([]string, 0, len(m))

	for k := range m {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
