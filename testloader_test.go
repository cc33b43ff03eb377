package vidbatch

import (
	"errors"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// segments returns one record per sequence with the given lengths
func segments(lengths ...int) []VideoRecord {

	out := make([]VideoRecord, len(lengths))

	for i, n := range lengths {
		out[i] = sequence(string(rune('a'+i)), n, 32, 48)[0]
	}

	return out
}

func TestTestLoaderKeyFrameFlags(t *testing.T) {

	codec := newFakeCodec(32, 48)

	l, err := NewTestLoader(segments(1, 5, 5), 1, codec, logs.NewTestingLog(t))
	require.NoError(t, err)
	require.Equal(t, 11, l.Size())

	var flags []KeyFrameFlag
	var transitions []int

	for l.HasNext() {
		batch, err := l.Next()
		require.NoError(t, err)

		flags = append(flags, batch.KeyFrameFlag)
		assert.Equal(t, 0, batch.Pad)
		assert.Equal(t, len(flags)-1, batch.Index)

		if batch.Transition {
			transitions = append(transitions, batch.Index)
			assert.Equal(t, KeyFrameTransition, l.Flag())
			assert.Equal(t, StateSeqEnd, l.State())
		} else {
			assert.Equal(t, batch.KeyFrameFlag, l.Flag())
			assert.Equal(t, StateInSeq, l.State())
		}
	}

	assert.Equal(t, []KeyFrameFlag{0, 0, 2, 2, 2, 2, 0, 2, 2, 2, 2}, flags)
	assert.Equal(t, []int{0, 5, 10}, transitions)

	assert.Equal(t, "a/000000.JPEG", codec.calls[0])
	assert.Equal(t, "b/000004.JPEG", codec.calls[5])
	assert.Equal(t, "c/000000.JPEG", codec.calls[6])

	_, err = l.Next()
	assert.True(t, errors.Is(err, ErrEndOfEpoch))

	l.Reset()
	assert.Equal(t, StateSeqStart, l.State())
	assert.Equal(t, KeyFrameNone, l.Flag())

	batch, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, KeyFrameNew, batch.KeyFrameFlag)
	assert.Equal(t, 0, batch.Index)
}

func TestTestLoaderBatch(t *testing.T) {

	codec := newFakeCodec(32, 48)
	codec.scale = 2

	l, err := NewTestLoader(segments(3), 1, codec, logs.NewTestingLog(t))
	require.NoError(t, err)

	_, err = l.Next()
	require.NoError(t, err)

	batch, err := l.Next()
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 3, 64, 96}, batch.Data[FieldData].Shape())
	assert.Equal(t, []float32{64, 96, 2}, Float32s(batch.Data[FieldImInfo]))
	assert.Equal(t, []float32{1}, Float32s(batch.Data[FieldSegID]))
	assert.Nil(t, batch.Label)
	assert.Equal(t, "a/000001.JPEG", batch.Frames[0].Current.Path)
}

func TestTestLoaderStills(t *testing.T) {

	records := []VideoRecord{still("x", 10, 10), still("y", 10, 10)}

	l, err := NewTestLoader(records, 1, newFakeCodec(10, 10), logs.NewTestingLog(t))
	require.NoError(t, err)
	require.Equal(t, 2, l.Size())

	for i := 0; i < 2; i++ {
		batch, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, KeyFrameNew, batch.KeyFrameFlag)
		assert.True(t, batch.Transition)
	}

	assert.False(t, l.HasNext())
}

func TestTestLoaderErrors(t *testing.T) {

	_, err := NewTestLoader(segments(2), 2, newFakeCodec(8, 8), logs.NewTestingLog(t))
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewTestLoader(segments(2), 1, nil, logs.NewTestingLog(t))
	assert.True(t, errors.Is(err, ErrConfiguration))

	l, err := NewTestLoader(nil, 1, newFakeCodec(8, 8), logs.NewTestingLog(t))
	require.NoError(t, err)
	assert.False(t, l.HasNext())

	_, err = l.Next()
	assert.True(t, errors.Is(err, ErrEndOfEpoch))

	codec := newFakeCodec(8, 8)
	codec.fail["a/000000.JPEG"] = true

	l, err = NewTestLoader(segments(2), 1, codec, logs.NewTestingLog(t))
	require.NoError(t, err)

	_, err = l.Next()
	assert.True(t, errors.Is(err, ErrData))
}

func TestTestLoaderRejectsBadPixelShape(t *testing.T) {

	codec := newFakeCodec(8, 8)
	codec.flat["a/000001.JPEG"] = true

	l, err := NewTestLoader(segments(2), 1, codec, logs.NewTestingLog(t))
	require.NoError(t, err)

	_, err = l.Next()
	require.NoError(t, err)

	_, err = l.Next()
	assert.True(t, errors.Is(err, ErrShape))
}
