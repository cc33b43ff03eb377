package vidbatch

import (
	"fmt"

	"github.com/cyclopcam/logs"
)

// SequenceState is the position of a TestLoader within the current sequence
type SequenceState int

const (
	// StateSeqStart is the state before the first frame of a sequence is
	// emitted
	StateSeqStart SequenceState = iota
	// StateInSeq is the state after emitting a frame that is not the last of
	// its sequence
	StateInSeq
	// StateSeqEnd is the state after emitting the last frame of a sequence
	StateSeqEnd
)

// String returns a readable description of the SequenceState
func (s SequenceState) String() string {
	switch s {
	case StateSeqStart:
		return "SeqStart"
	case StateInSeq:
		return "InSeq"
	case StateSeqEnd:
		return "SeqEnd"
	default:
		return "Unknown"
	}
}

// testDataFields defines the padding of every inference data field
var testDataFields = map[string]FieldKind{
	FieldData:     KindImage,
	FieldImInfo:   KindScalar,
	FieldFilename: KindScalar,
	FieldSegID:    KindScalar,
}

// TestLoader walks every frame of every sequence of one worker in order for
// inference, flagging where sequences start so the consumer can manage its
// per sequence feature caches
type TestLoader struct {
	// records are the sequences to walk, one record per sequence
	records []VideoRecord
	// codec decodes frames
	codec ImageCodec
	// log is the logger
	log logs.Log
	// data stacks the batch fields
	data *Assembler
	// batchSize is the number of frames per batch
	batchSize int
	// size is the total number of frames across all sequences
	size int
	// cur is the number of frames emitted in the epoch
	cur int
	// seq is the record index of the sequence being walked
	seq int
	// frame is the next frame number within the sequence
	frame int
	// state of the walk
	state SequenceState
	// flag is the key frame flag of the last batch
	flag KeyFrameFlag
	// transition is set after the last frame of a sequence until the next
	// fetch
	transition bool
}

// NewTestLoader returns an inference loader over the sequences of one
// worker.  Only a batch size of 1 is supported
func NewTestLoader(records []VideoRecord, batchSize int, codec ImageCodec, log logs.Log) (*TestLoader, error) {

	if batchSize != 1 {
		return nil, fmt.Errorf("%w: inference batch size must be 1, got %d",
			ErrConfiguration, batchSize)
	}

	if codec == nil || log == nil {
		return nil, fmt.Errorf("%w: codec and log are required", ErrConfiguration)
	}

	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	size := 0

	for _, r := range records {
		size += segmentFrames(r)
	}

	t := &TestLoader{
		records:   records,
		codec:     codec,
		log:       log,
		data:      NewAssembler(testDataFields),
		batchSize: batchSize,
		size:      size,
	}

	t.Reset()

	return t, nil
}

// Reset restarts the walk at the first frame of the first sequence
func (t *TestLoader) Reset() {
	t.cur = 0
	t.seq = 0
	t.frame = 0
	t.state = StateSeqStart
	t.flag = KeyFrameNone
	t.transition = false
}

// Size returns the total number of frames across all sequences
func (t *TestLoader) Size() int {
	return t.size
}

// State returns the position within the current sequence
func (t *TestLoader) State() SequenceState {
	return t.state
}

// Flag returns the key frame flag of the last batch, or KeyFrameTransition
// if that batch finished a sequence and no batch has been fetched since
func (t *TestLoader) Flag() KeyFrameFlag {

	if t.transition {
		return KeyFrameTransition
	}

	return t.flag
}

// HasNext returns true if frames remain in the epoch
func (t *TestLoader) HasNext() bool {
	return t.cur < t.size
}

// Next returns the batch holding the next frame, or ErrEndOfEpoch once every
// frame has been emitted
func (t *TestLoader) Next() (*Batch, error) {

	if !t.HasNext() {
		return nil, ErrEndOfEpoch
	}

	rec := t.records[t.seq]
	path := rec.FramePath(t.frame)

	img, err := decodeImage(t.codec, path)

	if err != nil {
		return nil, fmt.Errorf("sequence %d frame %d: %w", t.seq, t.frame, err)
	}

	info := img.Info()

	data, err := t.data.Stack([]Sample{{
		FieldData:     img.Pixels,
		FieldImInfo:   info.Tensor(),
		FieldFilename: VectorTensor(float32(t.seq)),
		FieldSegID:    VectorTensor(float32(t.frame)),
	}})

	if err != nil {
		return nil, err
	}

	t.transition = false
	t.flag = KeyFramePropagate

	if t.frame == 0 {
		t.flag = KeyFrameNew
	}

	batch := &Batch{
		Data:         data,
		Pad:          max(0, t.cur+t.batchSize-t.size),
		Index:        t.cur / t.batchSize,
		KeyFrameFlag: t.flag,
		Info:         []ImageInfo{info},
		Frames: []FrameContext{{
			Current: FrameRef{
				Position: t.cur,
				Record:   t.seq,
				FrameID:  t.frame,
				Path:     path,
			},
		}},
	}

	t.advance(segmentFrames(rec))

	if t.state == StateSeqEnd {
		batch.Transition = true
		t.log.Debugf("Sequence %d finished after %d frames", t.seq-1, segmentFrames(rec))
	}

	return batch, nil
}

// advance moves past the emitted frame of a sequence of segLen frames
func (t *TestLoader) advance(segLen int) {

	t.cur += t.batchSize
	t.frame++

	if t.frame < segLen {
		t.state = StateInSeq
		return
	}

	t.state = StateSeqEnd
	t.transition = true
	t.seq++
	t.frame = 0
}
