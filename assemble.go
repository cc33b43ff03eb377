package vidbatch

import (
	"fmt"
	"sort"

	"gorgonia.org/tensor"
)

// FieldKind defines how a named field is padded when samples are stacked
type FieldKind int

const (
	// KindImage is a (channels, height, width) image.  Channels must agree,
	// height and width are zero padded at the bottom and right
	KindImage FieldKind = iota
	// KindBoxes is a (boxes, columns) ground truth table with the class in
	// the last column.  Columns must agree, missing rows are filled with
	// zero coordinates and class BoxPadClass
	KindBoxes
	// KindScalar is a fixed shape field that is never padded
	KindScalar
	// KindLabel is an anchor label field padded with LabelPadValue
	KindLabel
	// KindTarget is a regression target or weight field padded with zero
	KindTarget
)

const (
	// BoxPadClass is the class written to padded ground truth rows meaning
	// "no box"
	BoxPadClass = -1
	// LabelPadValue is written to padded anchor label entries, which the
	// loss treats as ignored
	LabelPadValue = -1
)

// Sample holds the named tensors of one worker's sample.  Tensors do not
// carry a batch dimension
type Sample map[string]*tensor.Dense

// Assembler pads and stacks samples into batch tensors
type Assembler struct {
	// kinds maps field names to their padding kind
	kinds map[string]FieldKind
}

// NewAssembler returns an Assembler for the given fields
func NewAssembler(fields map[string]FieldKind) *Assembler {

	kinds := make(map[string]FieldKind, len(fields))

	for k, v := range fields {
		kinds[k] = v
	}

	return &Assembler{
		kinds: kinds,
	}
}

// Stack pads every field to the largest shape found across samples and
// stacks them.  The first dimension of each output tensor is the number of
// samples
func (a *Assembler) Stack(samples []Sample) (map[string]*tensor.Dense, error) {

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples to stack", ErrShape)
	}

	// iterate field names in a stable order so errors are deterministic
	names := make([]string, 0, len(a.kinds))

	for name := range a.kinds {
		names = append(names, name)
	}

	sort.Strings(names)

	out := make(map[string]*tensor.Dense, len(names))

	for _, name := range names {
		items := make([]*tensor.Dense, len(samples))

		for i, s := range samples {
			t, ok := s[name]

			if !ok || t == nil {
				return nil, fmt.Errorf("%w: sample %d is missing field %q", ErrShape, i, name)
			}

			items[i] = t
		}

		stacked, err := a.stackField(name, a.kinds[name], items)

		if err != nil {
			return nil, err
		}

		out[name] = stacked
	}

	return out, nil
}

// stackField pads and stacks the tensors of a single field
func (a *Assembler) stackField(name string, kind FieldKind, items []*tensor.Dense) (*tensor.Dense, error) {

	first := shapeOf(items[0])
	maxShape := make([]int, len(first))
	copy(maxShape, first)

	fixed := fixedAxes(kind, len(first))

	for i, t := range items[1:] {
		shape := shapeOf(t)

		if len(shape) != len(first) {
			return nil, fmt.Errorf("%w: field %q sample %d has rank %d, want %d",
				ErrShape, name, i+1, len(shape), len(first))
		}

		for ax, d := range shape {
			if fixed[ax] && d != first[ax] {
				return nil, fmt.Errorf("%w: field %q sample %d has %d entries on axis %d, want %d",
					ErrShape, name, i+1, d, ax, first[ax])
			}

			if d > maxShape[ax] {
				maxShape[ax] = d
			}
		}
	}

	itemSize := sizeOf(maxShape)
	data := make([]float32, len(items)*itemSize)

	if pad := padValue(kind); pad != 0 {
		for i := range data {
			data[i] = pad
		}
	}

	for i, t := range items {
		dst := data[i*itemSize : (i+1)*itemSize]
		src := Float32s(t)
		srcShape := shapeOf(t)

		if len(src) != sizeOf(srcShape) {
			return nil, fmt.Errorf("%w: field %q sample %d is not a float32 tensor",
				ErrShape, name, i)
		}

		copyPadded(dst, maxShape, src, srcShape)

		if kind == KindBoxes && len(maxShape) == 2 {
			rows, cols := maxShape[0], maxShape[1]

			for r := srcShape[0]; r < rows; r++ {
				dst[r*cols+cols-1] = BoxPadClass
			}
		}
	}

	return NewTensor(data, append([]int{len(items)}, maxShape...)...), nil
}

// fixedAxes returns which axes of a field of the given kind and rank must
// agree across samples
func fixedAxes(kind FieldKind, rank int) []bool {

	fixed := make([]bool, rank)

	switch kind {
	case KindImage:
		if rank > 0 {
			fixed[0] = true
		}
	case KindBoxes:
		if rank > 0 {
			fixed[rank-1] = true
		}
	case KindScalar:
		for i := range fixed {
			fixed[i] = true
		}
	}

	return fixed
}

// padValue returns the fill value of padded entries for kind
func padValue(kind FieldKind) float32 {
	if kind == KindLabel {
		return LabelPadValue
	}
	return 0
}

// copyPadded copies src of srcShape into the origin corner of dst of
// dstShape, both row major with equal rank
func copyPadded(dst []float32, dstShape []int, src []float32, srcShape []int) {

	rank := len(srcShape)

	if rank == 0 || len(src) == 0 {
		return
	}

	rowLen := srcShape[rank-1]
	dstStrides := stridesOf(dstShape)
	srcStrides := stridesOf(srcShape)
	rows := len(src) / rowLen
	coord := make([]int, rank)

	for r := 0; r < rows; r++ {
		// decompose row number into the leading coordinates
		rem := r * rowLen
		dstOff := 0

		for ax := 0; ax < rank-1; ax++ {
			coord[ax] = rem / srcStrides[ax]
			rem %= srcStrides[ax]
			dstOff += coord[ax] * dstStrides[ax]
		}

		copy(dst[dstOff:dstOff+rowLen], src[r*rowLen:(r+1)*rowLen])
	}
}
