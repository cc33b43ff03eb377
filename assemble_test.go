package vidbatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// seqTensor returns a tensor of shape filled with 1, 2, 3...
func seqTensor(shape ...int) *tensor.Dense {

	data := make([]float32, sizeOf(shape))

	for i := range data {
		data[i] = float32(i + 1)
	}

	return NewTensor(data, shape...)
}

func TestStackPadsImages(t *testing.T) {

	a := NewAssembler(map[string]FieldKind{"data": KindImage})

	samples := []Sample{
		{"data": seqTensor(2, 3, 4)},
		{"data": seqTensor(2, 5, 2)},
	}

	out, err := a.Stack(samples)
	require.NoError(t, err)

	data := out["data"]
	assert.Equal(t, tensor.Shape{2, 2, 5, 4}, data.Shape())

	got := Float32s(data)
	plane := 5 * 4

	for n, s := range samples {
		shape := s["data"].Shape()
		src := Float32s(s["data"])

		for c := 0; c < 2; c++ {
			for y := 0; y < 5; y++ {
				for x := 0; x < 4; x++ {
					v := got[n*2*plane+c*plane+y*4+x]

					if y < shape[1] && x < shape[2] {
						// original pixels unchanged at the origin
						assert.Equal(t, src[c*shape[1]*shape[2]+y*shape[2]+x], v)
					} else {
						assert.Equal(t, float32(0), v)
					}
				}
			}
		}
	}
}

func TestStackPadsBoxes(t *testing.T) {

	a := NewAssembler(map[string]FieldKind{"gt_boxes": KindBoxes})

	out, err := a.Stack([]Sample{
		{"gt_boxes": NewTensor([]float32{1, 2, 3, 4, 7}, 1, 5)},
		{"gt_boxes": NewTensor([]float32{1, 1, 2, 2, 1, 5, 5, 9, 9, 2, 0, 0, 4, 4, 3}, 3, 5)},
	})
	require.NoError(t, err)

	boxes := out["gt_boxes"]
	assert.Equal(t, tensor.Shape{2, 3, 5}, boxes.Shape())
	assert.Equal(t, []float32{
		1, 2, 3, 4, 7,
		0, 0, 0, 0, BoxPadClass,
		0, 0, 0, 0, BoxPadClass,
		1, 1, 2, 2, 1,
		5, 5, 9, 9, 2,
		0, 0, 4, 4, 3,
	}, Float32s(boxes))
}

func TestStackPadsLabels(t *testing.T) {

	a := NewAssembler(map[string]FieldKind{
		"label":       KindLabel,
		"bbox_target": KindTarget,
	})

	out, err := a.Stack([]Sample{
		{"label": VectorTensor(1, 0), "bbox_target": VectorTensor(0.5)},
		{"label": VectorTensor(0, 1, 1), "bbox_target": VectorTensor(0.1, 0.2)},
	})
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 0, LabelPadValue, 0, 1, 1}, Float32s(out["label"]))
	assert.Equal(t, []float32{0.5, 0, 0.1, 0.2}, Float32s(out["bbox_target"]))
}

func TestStackShapeErrors(t *testing.T) {

	tests := []struct {
		name    string
		kind    FieldKind
		samples []Sample
	}{
		{"channel mismatch", KindImage, []Sample{
			{"f": seqTensor(3, 4, 4)},
			{"f": seqTensor(1, 4, 4)},
		}},
		{"box columns mismatch", KindBoxes, []Sample{
			{"f": seqTensor(2, 5)},
			{"f": seqTensor(2, 4)},
		}},
		{"rank mismatch", KindImage, []Sample{
			{"f": seqTensor(3, 4, 4)},
			{"f": seqTensor(3, 4)},
		}},
		{"scalar mismatch", KindScalar, []Sample{
			{"f": VectorTensor(1, 2, 3)},
			{"f": VectorTensor(1, 2)},
		}},
		{"missing field", KindScalar, []Sample{
			{"f": VectorTensor(1)},
			{"g": VectorTensor(1)},
		}},
		{"no samples", KindScalar, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssembler(map[string]FieldKind{"f": tc.kind})
			_, err := a.Stack(tc.samples)
			assert.True(t, errors.Is(err, ErrShape), "got %v", err)
		})
	}
}
