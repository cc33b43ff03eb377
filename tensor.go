package vidbatch

import (
	"gorgonia.org/tensor"
)

// NewTensor wraps data in a float32 tensor of the given shape.  The length
// of data must equal the product of shape
func NewTensor(data []float32, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

// VectorTensor returns a one dimensional tensor holding values
func VectorTensor(values ...float32) *tensor.Dense {

	data := make([]float32, len(values))
	copy(data, values)

	return NewTensor(data, len(data))
}

// Float32s returns the backing data of a float32 tensor
func Float32s(t *tensor.Dense) []float32 {

	switch d := t.Data().(type) {
	case []float32:
		return d
	case float32:
		return []float32{d}
	default:
		return nil
	}
}

// shapeOf returns a copy of a tensor's shape
func shapeOf(t *tensor.Dense) []int {

	s := t.Shape()
	out := make([]int, len(s))
	copy(out, s)

	return out
}

// sizeOf returns the number of elements described by shape
func sizeOf(shape []int) int {

	n := 1

	for _, d := range shape {
		n *= d
	}

	return n
}

// stridesOf returns the row major element strides of shape
func stridesOf(shape []int) []int {

	strides := make([]int, len(shape))
	acc := 1

	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}

	return strides
}
