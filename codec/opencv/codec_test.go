package opencv

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vidbatch "github.com/swdee/go-vidbatch"
	"github.com/swdee/go-vidbatch/codec"
	"github.com/swdee/go-vidbatch/preprocess"
	"gorgonia.org/tensor"
)

// writePNG writes a solid color image of the given size
func writePNG(t *testing.T, dir string, h, w int) string {

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 20, B: 10, A: 255})
		}
	}

	path := filepath.Join(dir, "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	return path
}

func TestCodecMatchesNative(t *testing.T) {

	path := writePNG(t, t.TempDir(), 30, 40)
	spec := preprocess.ScaleSpec{Target: 60, Max: 100}

	native, err := codec.NewNative(spec, preprocess.Means{})
	require.NoError(t, err)

	ocv, err := NewCodec(spec, preprocess.Means{})
	require.NoError(t, err)
	defer ocv.Close()

	tests := []struct {
		name  string
		codec vidbatch.ImageCodec
	}{
		{"native", native},
		{"opencv", ocv},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := tc.codec.Decode(path)
			require.NoError(t, err)

			assert.Equal(t, 30, img.Height)
			assert.Equal(t, 40, img.Width)
			assert.Equal(t, float32(2), img.Scale)
			assert.Equal(t, tensor.Shape{3, 60, 80}, img.Pixels.Shape())
			assert.Equal(t, vidbatch.ImageInfo{Height: 60, Width: 80, Scale: 2}, img.Info())

			data := img.Pixels.Data().([]float32)
			assert.InDelta(t, 30, data[0], 1)
			assert.InDelta(t, 10, data[2*60*80], 1)
		})
	}
}

func TestCodecMissingFile(t *testing.T) {

	ocv, err := NewCodec(preprocess.DefaultScaleSpec(), preprocess.DefaultMeans())
	require.NoError(t, err)
	defer ocv.Close()

	_, err = ocv.Decode(filepath.Join(t.TempDir(), "missing.png"))
	assert.True(t, errors.Is(err, vidbatch.ErrData))
}

func TestNewCodecInvalidSpec(t *testing.T) {

	_, err := NewCodec(preprocess.ScaleSpec{}, preprocess.Means{})
	assert.Error(t, err)
}
