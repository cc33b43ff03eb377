package vidbatch

import (
	"fmt"
)

// FrameRef identifies one frame a worker reads
type FrameRef struct {
	// Position is the read position in the dataset index
	Position int
	// Record is the record index the position maps to
	Record int
	// FrameID is the frame number within the record's sequence
	FrameID int
	// Path is the image file of the frame
	Path string
}

// FrameContext is the current frame of a worker together with the two
// frames needed for flow based aggregation
type FrameContext struct {
	Current     FrameRef
	Previous    FrameRef
	PrePrevious FrameRef
	// SequenceStart is true when the current frame is the first of its
	// sequence, in which case Previous and PrePrevious refer to the current
	// frame itself
	SequenceStart bool
}

// frameHistory holds the positions last consumed by one worker
type frameHistory struct {
	last     int
	previous int
}

// FrameFetcher resolves the frame context of each worker.  Every worker owns
// its own history of consumed positions, the fetcher must not be shared
// between goroutines
type FrameFetcher struct {
	// records are the dataset records
	records []VideoRecord
	// index is the current epoch's dataset index
	index DatasetIndex
	// history per worker
	history []frameHistory
}

// NewFrameFetcher returns a fetcher for the given number of workers
func NewFrameFetcher(records []VideoRecord, index DatasetIndex, workers int) (*FrameFetcher, error) {

	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d",
			ErrConfiguration, workers)
	}

	f := &FrameFetcher{
		records: records,
		history: make([]frameHistory, workers),
	}

	f.Reset(index)

	return f, nil
}

// Reset installs a new dataset index and clears every worker's history.  The
// history of every worker starts at position 0
func (f *FrameFetcher) Reset(index DatasetIndex) {

	f.index = index

	for i := range f.history {
		f.history[i] = frameHistory{}
	}
}

// Resolve returns the frame context for worker reading position and records
// the position as consumed by that worker
func (f *FrameFetcher) Resolve(worker, position int) (FrameContext, error) {

	if worker < 0 || worker >= len(f.history) {
		return FrameContext{}, fmt.Errorf("%w: worker %d out of range [0-%d)",
			ErrConfiguration, worker, len(f.history))
	}

	cur, err := f.ref(position)

	if err != nil {
		return FrameContext{}, err
	}

	h := &f.history[worker]
	ctx := FrameContext{Current: cur}

	rec := f.records[cur.Record]

	if rec.IsStill() || rec.FrameSegID == 0 {
		ctx.SequenceStart = true
		ctx.Previous = cur
		ctx.PrePrevious = cur

	} else {
		ctx.Previous, err = f.ref(h.last)

		if err != nil {
			return FrameContext{}, err
		}

		ctx.PrePrevious, err = f.ref(h.previous)

		if err != nil {
			return FrameContext{}, err
		}
	}

	h.previous = h.last
	h.last = position

	return ctx, nil
}

// ref builds the FrameRef of a dataset index position
func (f *FrameFetcher) ref(position int) (FrameRef, error) {

	if position < 0 || position >= len(f.index) {
		return FrameRef{}, fmt.Errorf("%w: position %d out of range [0-%d)",
			ErrData, position, len(f.index))
	}

	idx := f.index[position]

	if idx < 0 || idx >= len(f.records) {
		return FrameRef{}, fmt.Errorf("%w: index entry %d refers to missing record %d",
			ErrData, position, idx)
	}

	rec := f.records[idx]

	return FrameRef{
		Position: position,
		Record:   idx,
		FrameID:  rec.FrameSegID,
		Path:     rec.FramePath(rec.FrameSegID),
	}, nil
}
