package vidbatch

import (
	"fmt"
	"math"
)

// Slice is a half open range [Start, Stop) of batch entries handled by one
// worker
type Slice struct {
	Start int
	Stop  int
}

// Len returns the number of entries in the slice
func (s Slice) Len() int {
	return s.Stop - s.Start
}

// SplitWorkload divides batchSize entries into one contiguous slice per
// worker, proportional to each worker's work load.  A shortfall from
// rounding is given to the last worker
func SplitWorkload(batchSize int, workLoad []int) ([]Slice, error) {

	if len(workLoad) == 0 {
		return nil, fmt.Errorf("%w: empty work load list", ErrConfiguration)
	}

	total := 0

	for i, w := range workLoad {
		if w <= 0 {
			return nil, fmt.Errorf("%w: work load of worker %d must be positive, got %d",
				ErrConfiguration, i, w)
		}
		total += w
	}

	nums := make([]int, len(workLoad))
	sum := 0

	for i, w := range workLoad {
		nums[i] = int(math.Round(float64(w*batchSize) / float64(total)))
		sum += nums[i]
	}

	if sum < batchSize {
		nums[len(nums)-1] += batchSize - sum
	}

	slices := make([]Slice, len(workLoad))
	end := 0

	for i, n := range nums {
		begin := min(end, batchSize)
		end = min(begin+n, batchSize)

		if begin >= end {
			return nil, fmt.Errorf("%w: batch size %d leaves worker %d of %d without work",
				ErrConfiguration, batchSize, i, len(workLoad))
		}

		slices[i] = Slice{Start: begin, Stop: end}
	}

	return slices, nil
}

// SplitBySegmentLength distributes records across workers for inference.
// Each record goes to the worker with the fewest accumulated frames so far,
// ties go to the lowest worker number
func SplitBySegmentLength(records []VideoRecord, workers int) ([][]VideoRecord, error) {

	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d",
			ErrConfiguration, workers)
	}

	out := make([][]VideoRecord, workers)
	frames := make([]int, workers)

	for _, r := range records {
		w := 0

		for i := 1; i < workers; i++ {
			if frames[i] < frames[w] {
				w = i
			}
		}

		out[w] = append(out[w], r)
		frames[w] += segmentFrames(r)
	}

	return out, nil
}

// segmentFrames returns the number of frames an inference pass over the
// record visits
func segmentFrames(r VideoRecord) int {
	if r.IsStill() || r.FrameSegLen <= 0 {
		return 1
	}
	return r.FrameSegLen
}
