package vidbatch

import (
	"fmt"
	"math/rand"

	"github.com/cyclopcam/logs"
	"github.com/swdee/go-vidbatch/anchor"
	"gorgonia.org/tensor"
)

// Data and label field names of a training batch
const (
	// FieldData is the current frame
	FieldData = "data"
	// FieldDataBef is the previous frame of the same worker
	FieldDataBef = "data_bef"
	// FieldDataBefPre is the frame before the previous frame
	FieldDataBefPre = "data_bef_pre"
	// FieldImInfo is the (height, width, scale) of the current frame
	FieldImInfo = "im_info"
	// FieldGTBoxes are the scaled ground truth boxes (x1, y1, x2, y2, class)
	FieldGTBoxes = "gt_boxes"
	// FieldFilename is the record index of the current frame
	FieldFilename = "filename"
	// FieldFilenamePre is the record index of the previous frame
	FieldFilenamePre = "filename_pre"
	// FieldPreFilename is the frame number of the previous frame
	FieldPreFilename = "pre_filename"
	// FieldPreFilenamePre is the frame number of the frame before the
	// previous frame
	FieldPreFilenamePre = "pre_filename_pre"
	// FieldSegID is the frame number of the current frame
	FieldSegID = "seg_id"

	// FieldLabel is the anchor classification label
	FieldLabel = "label"
	// FieldBBoxTarget is the anchor regression target
	FieldBBoxTarget = "bbox_target"
	// FieldBBoxWeight is the anchor regression weight
	FieldBBoxWeight = "bbox_weight"
)

// trainDataFields defines the padding of every training data field
var trainDataFields = map[string]FieldKind{
	FieldData:           KindImage,
	FieldDataBef:        KindImage,
	FieldDataBefPre:     KindImage,
	FieldImInfo:         KindScalar,
	FieldGTBoxes:        KindBoxes,
	FieldFilename:       KindScalar,
	FieldFilenamePre:    KindScalar,
	FieldPreFilename:    KindScalar,
	FieldPreFilenamePre: KindScalar,
	FieldSegID:          KindScalar,
}

// trainLabelFields defines the padding of every training label field
var trainLabelFields = map[string]FieldKind{
	FieldLabel:      KindLabel,
	FieldBBoxTarget: KindTarget,
	FieldBBoxWeight: KindTarget,
}

// AnchorLoader produces training batches of frame triples with anchor
// targets.  The dataset is partitioned across workers so each worker reads
// a contiguous run of the (sequence shuffled) index, keeping consecutive
// frames of a sequence on the same worker.  An AnchorLoader must not be
// used from more than one goroutine
type AnchorLoader struct {
	// records are the dataset records
	records []VideoRecord
	// cfg are the loader settings
	cfg Config
	// codec decodes frames
	codec ImageCodec
	// oracle sizes the feature grid
	oracle FeatureShapeOracle
	// rng drives shuffling and anchor sampling
	rng *rand.Rand
	// log is the logger
	log logs.Log
	// assigner assigns anchor targets
	assigner *anchor.Assigner
	// cursor gives each worker's read position
	cursor *PartitionedCursor
	// fetcher resolves previous frames per worker
	fetcher *FrameFetcher
	// data and label stack the batch fields
	data  *Assembler
	label *Assembler
	// perWorker is the number of samples each worker reads per batch
	perWorker int
	// index is the current epoch's dataset index
	index DatasetIndex
	// cur is the number of samples consumed in the epoch
	cur int
	// observer is called after every shuffle
	observer ShuffleObserver
}

// NewAnchorLoader returns a training loader over records.  If rng is nil a
// random source seeded with cfg.Seed is used.  The loader is reset and ready
// to produce its first batch
func NewAnchorLoader(records []VideoRecord, cfg Config, codec ImageCodec,
	oracle FeatureShapeOracle, rng *rand.Rand, log logs.Log) (*AnchorLoader, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if codec == nil || oracle == nil || log == nil {
		return nil, fmt.Errorf("%w: codec, shape oracle and log are required", ErrConfiguration)
	}

	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	size := len(records)

	if size%cfg.Workers != 0 {
		return nil, fmt.Errorf("%w: dataset size %d is not divisible by %d workers",
			ErrConfiguration, size, cfg.Workers)
	}

	slices, err := SplitWorkload(cfg.BatchSize, cfg.workLoad())

	if err != nil {
		return nil, err
	}

	perWorker := cfg.BatchSize / cfg.Workers

	for i, s := range slices {
		if s.Len() != perWorker {
			return nil, fmt.Errorf("%w: work load gives worker %d %d samples, partitioned loading needs %d per worker",
				ErrConfiguration, i, s.Len(), perWorker)
		}
	}

	cursor, err := NewPartitionedCursor(cfg.Workers, size)

	if err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	assigner, err := anchor.NewAssigner(cfg.Anchor, rng)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	fetcher, err := NewFrameFetcher(records, SequentialIndex(size), cfg.Workers)

	if err != nil {
		return nil, err
	}

	l := &AnchorLoader{
		records:   records,
		cfg:       cfg,
		codec:     codec,
		oracle:    oracle,
		rng:       rng,
		log:       log,
		assigner:  assigner,
		cursor:    cursor,
		fetcher:   fetcher,
		data:      NewAssembler(trainDataFields),
		label:     NewAssembler(trainLabelFields),
		perWorker: perWorker,
	}

	l.Reset()

	return l, nil
}

// SetShuffleObserver installs a callback invoked after every epoch shuffle
func (l *AnchorLoader) SetShuffleObserver(fn ShuffleObserver) {
	l.observer = fn
}

// Size returns the number of records in the dataset
func (l *AnchorLoader) Size() int {
	return len(l.records)
}

// Index returns the current epoch's dataset index
func (l *AnchorLoader) Index() DatasetIndex {
	return l.index
}

// Reset starts a new epoch, rebuilding the dataset index and clearing every
// worker's frame history
func (l *AnchorLoader) Reset() {

	l.cur = 0
	before := SequentialIndex(len(l.records))

	switch {
	case !l.cfg.Shuffle:
		l.index = before
	case l.cfg.AspectGrouping:
		l.index = AspectGroupShuffle(l.records, l.cfg.BatchSize, l.rng)
	default:
		l.index = SequenceShuffle(l.records, l.rng)
	}

	l.fetcher.Reset(l.index)

	if l.cfg.Shuffle && l.observer != nil {
		l.observer(before, l.index)
	}

	l.log.Debugf("Loader reset, %d records over %d workers", len(l.records), l.cfg.Workers)
}

// HasNext returns true if another full batch is available in the epoch
func (l *AnchorLoader) HasNext() bool {
	return l.cur+l.cfg.BatchSize <= len(l.records)
}

// Next returns the next batch of the epoch, or ErrEndOfEpoch once the epoch
// is exhausted
func (l *AnchorLoader) Next() (*Batch, error) {

	if !l.HasNext() {
		return nil, ErrEndOfEpoch
	}

	batch, err := l.fetch()

	if err != nil {
		return nil, err
	}

	l.cur += l.cfg.BatchSize

	return batch, nil
}

// positions returns the read positions of every sample of the batch at the
// current step, worker by worker
func (l *AnchorLoader) positions() ([][]int, error) {

	offsets, err := l.cursor.Offsets(l.cur)

	if err != nil {
		return nil, err
	}

	part := l.cursor.PartitionLen()
	out := make([][]int, len(offsets))

	for w, off := range offsets {
		start := w * part
		out[w] = make([]int, l.perWorker)

		for k := range out[w] {
			out[w][k] = start + (off-start+k)%part
		}
	}

	return out, nil
}

// fetch reads and assembles the batch at the current step
func (l *AnchorLoader) fetch() (*Batch, error) {

	positions, err := l.positions()

	if err != nil {
		return nil, err
	}

	var samples []Sample
	var gts [][]anchor.GroundTruth
	var infos []ImageInfo
	var frames []FrameContext

	for w, ps := range positions {
		for _, pos := range ps {
			ctx, err := l.fetcher.Resolve(w, pos)

			if err != nil {
				return nil, err
			}

			s, gt, info, err := l.sample(ctx)

			if err != nil {
				return nil, fmt.Errorf("worker %d position %d: %w", w, pos, err)
			}

			samples = append(samples, s)
			gts = append(gts, gt)
			infos = append(infos, info)
			frames = append(frames, ctx)
		}
	}

	data, err := l.data.Stack(samples)

	if err != nil {
		return nil, err
	}

	featH, featW, err := l.oracle.FeatureShape(shapeOf(data[FieldData]))

	if err != nil {
		return nil, fmt.Errorf("error inferring feature shape: %w", err)
	}

	labels := make([]Sample, len(samples))

	for i := range samples {
		labels[i], err = l.assign(featH, featW, gts[i], infos[i])

		if err != nil {
			return nil, err
		}
	}

	label, err := l.label.Stack(labels)

	if err != nil {
		return nil, err
	}

	l.log.Debugf("Batch %d assembled, feature grid %dx%d", l.cur/l.cfg.BatchSize, featH, featW)

	return &Batch{
		Data:         data,
		Label:        label,
		Pad:          0,
		Index:        l.cur / l.cfg.BatchSize,
		KeyFrameFlag: KeyFrameNone,
		Info:         infos,
		Frames:       frames,
	}, nil
}

// sample decodes the frames of ctx and builds the unpadded data fields
func (l *AnchorLoader) sample(ctx FrameContext) (Sample, []anchor.GroundTruth, ImageInfo, error) {

	cur, err := decodeImage(l.codec, ctx.Current.Path)

	if err != nil {
		return nil, nil, ImageInfo{}, err
	}

	prev := cur

	if ctx.Previous.Path != ctx.Current.Path {
		prev, err = decodeImage(l.codec, ctx.Previous.Path)

		if err != nil {
			return nil, nil, ImageInfo{}, err
		}
	}

	prePrev := prev

	if ctx.PrePrevious.Path != ctx.Previous.Path {
		prePrev, err = decodeImage(l.codec, ctx.PrePrevious.Path)

		if err != nil {
			return nil, nil, ImageInfo{}, err
		}
	}

	info := cur.Info()
	rec := l.records[ctx.Current.Record]
	boxes, gt := scaleBoxes(rec.Boxes, cur.Scale)

	s := Sample{
		FieldData:           cur.Pixels,
		FieldDataBef:        prev.Pixels,
		FieldDataBefPre:     prePrev.Pixels,
		FieldImInfo:         info.Tensor(),
		FieldGTBoxes:        boxes,
		FieldFilename:       VectorTensor(float32(ctx.Current.Record)),
		FieldFilenamePre:    VectorTensor(float32(ctx.Previous.Record)),
		FieldPreFilename:    VectorTensor(float32(ctx.Previous.FrameID)),
		FieldPreFilenamePre: VectorTensor(float32(ctx.PrePrevious.FrameID)),
		FieldSegID:          VectorTensor(float32(ctx.Current.FrameID)),
	}

	return s, gt, info, nil
}

// assign computes the anchor targets of one sample
func (l *AnchorLoader) assign(featH, featW int, gt []anchor.GroundTruth, info ImageInfo) (Sample, error) {

	t, err := l.assigner.Assign(featH, featW, gt, anchor.ImageInfo{
		Height: float32(info.Height),
		Width:  float32(info.Width),
		Scale:  info.Scale,
	})

	if err != nil {
		return nil, fmt.Errorf("error assigning anchors: %w", err)
	}

	for _, j := range t.Uncovered {
		l.log.Warnf("Ground truth box %d (%v) overlaps no anchor inside the %dx%d image",
			j, gt[j].Box, info.Height, info.Width)
	}

	label, target, weight := t.Tensors()

	return Sample{
		FieldLabel:      label,
		FieldBBoxTarget: target,
		FieldBBoxWeight: weight,
	}, nil
}

// InferShape returns the label shapes of a batch whose largest input is
// maxHeight x maxWidth, for allocating network buffers up front
func (l *AnchorLoader) InferShape(maxHeight, maxWidth int) (map[string][]int, error) {

	dataShape := []int{l.cfg.BatchSize, 3, maxHeight, maxWidth}
	featH, featW, err := l.oracle.FeatureShape(dataShape)

	if err != nil {
		return nil, fmt.Errorf("error inferring feature shape: %w", err)
	}

	a := l.cfg.Anchor.NumAnchors()
	n := l.cfg.BatchSize

	return map[string][]int{
		FieldData:       dataShape,
		FieldLabel:      {n, a * featH * featW},
		FieldBBoxTarget: {n, 4 * a, featH, featW},
		FieldBBoxWeight: {n, 4 * a, featH, featW},
	}, nil
}

// scaleBoxes scales ground truth boxes into network input coordinates.  It
// returns the (N, 5) box table, with a single "no box" row when there is no
// ground truth, and the boxes for anchor assignment
func scaleBoxes(boxes []Box, scale float32) (*tensor.Dense, []anchor.GroundTruth) {

	if len(boxes) == 0 {
		return NewTensor([]float32{0, 0, 0, 0, BoxPadClass}, 1, 5), nil
	}

	data := make([]float32, 0, len(boxes)*5)
	gt := make([]anchor.GroundTruth, len(boxes))

	for i, b := range boxes {
		sb := anchor.Box{
			X1: b.X1 * scale,
			Y1: b.Y1 * scale,
			X2: b.X2 * scale,
			Y2: b.Y2 * scale,
		}

		gt[i] = anchor.GroundTruth{Box: sb, Class: b.Class}
		data = append(data, sb.X1, sb.Y1, sb.X2, sb.Y2, float32(b.Class))
	}

	return NewTensor(data, len(boxes), 5), gt
}
