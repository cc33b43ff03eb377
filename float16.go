package vidbatch

import "github.com/x448/float16"

// convertFloat32BufferToFloat16 converts a float32 buffer to float16 bits
func convertFloat32BufferToFloat16(buf []float32) []uint16 {

	out := make([]uint16, len(buf))

	for i, v := range buf {
		out[i] = float16.Fromfloat32(v).Bits()
	}

	return out
}
