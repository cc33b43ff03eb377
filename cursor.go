package vidbatch

import (
	"fmt"
)

// PartitionedCursor divides an ordered dataset into one contiguous partition
// per worker and tracks where each worker reads at a given global step
type PartitionedCursor struct {
	// workers is the number of workers sharing the dataset
	workers int
	// size is the number of entries in the dataset index
	size int
	// partLen is the length of each worker's partition
	partLen int
}

// NewPartitionedCursor returns a cursor for the given number of workers over
// a dataset of size entries.  The size must be divisible by the worker count
func NewPartitionedCursor(workers, size int) (*PartitionedCursor, error) {

	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d",
			ErrConfiguration, workers)
	}

	if size <= 0 || size%workers != 0 {
		return nil, fmt.Errorf("%w: dataset size %d must be a positive multiple of worker count %d",
			ErrConfiguration, size, workers)
	}

	return &PartitionedCursor{
		workers: workers,
		size:    size,
		partLen: size / workers,
	}, nil
}

// Workers returns the number of partitions
func (c *PartitionedCursor) Workers() int {
	return c.workers
}

// PartitionLen returns the number of entries in each partition
func (c *PartitionedCursor) PartitionLen() int {
	return c.partLen
}

// Offset returns the read position of worker at global step.  The step must
// be a multiple of the worker count.  Each worker advances one entry for
// every workers steps and wraps inside its own partition
func (c *PartitionedCursor) Offset(worker, step int) (int, error) {

	if worker < 0 || worker >= c.workers {
		return 0, fmt.Errorf("%w: worker %d out of range [0-%d)",
			ErrConfiguration, worker, c.workers)
	}

	if step < 0 || step%c.workers != 0 {
		return 0, fmt.Errorf("%w: step %d must be a non-negative multiple of worker count %d",
			ErrConfiguration, step, c.workers)
	}

	return worker*c.partLen + (step/c.workers)%c.partLen, nil
}

// Offsets returns the read position of every worker at global step
func (c *PartitionedCursor) Offsets(step int) ([]int, error) {

	offsets := make([]int, c.workers)

	for i := range offsets {
		off, err := c.Offset(i, step)

		if err != nil {
			return nil, err
		}

		offsets[i] = off
	}

	return offsets, nil
}
