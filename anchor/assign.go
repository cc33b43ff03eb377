package anchor

import (
	"fmt"
	"math/rand"
)

// Label is the classification target of an anchor
type Label int8

const (
	// Ignore anchors do not contribute to the loss
	Ignore Label = -1
	// Negative anchors are background
	Negative Label = 0
	// Positive anchors are foreground and carry a regression target
	Positive Label = 1
)

// String returns a readable description of the Label
func (l Label) String() string {
	switch l {
	case Ignore:
		return "ignore"
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return "unknown"
	}
}

// ImageInfo is the scaled image size the anchors are checked against
type ImageInfo struct {
	Height float32
	Width  float32
	Scale  float32
}

// Targets are the assigned training targets of every anchor of a feature
// grid, in the order produced by Generate
type Targets struct {
	// FeatHeight is the feature grid height
	FeatHeight int
	// FeatWidth is the feature grid width
	FeatWidth int
	// NumAnchors is the number of anchors per grid cell
	NumAnchors int
	// Anchors are the generated anchors
	Anchors []Box
	// Labels is the classification target per anchor
	Labels []Label
	// BBoxTargets is the regression target per anchor, zero unless Positive
	BBoxTargets [][4]float32
	// BBoxWeights is the regression weight per anchor, zero unless Positive
	BBoxWeights [][4]float32
	// Uncovered are the indices of ground truth boxes that overlap no in
	// bounds anchor and so have no positive anchor
	Uncovered []int
}

// Count returns the number of anchors with the given label
func (t *Targets) Count(l Label) int {

	n := 0

	for _, v := range t.Labels {
		if v == l {
			n++
		}
	}

	return n
}

// Assigner labels anchors against ground truth and samples them within the
// configured budget
type Assigner struct {
	// Params are the assignment parameters
	Params Params
	// rng drives the random demotion of surplus anchors
	rng *rand.Rand
}

// NewAssigner returns an Assigner.  The random source makes sampling
// reproducible, it must not be shared with code running concurrently
func NewAssigner(p Params, rng *rand.Rand) (*Assigner, error) {

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid anchor params: %w", err)
	}

	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	return &Assigner{
		Params: p,
		rng:    rng,
	}, nil
}

// Assign generates the anchors of a featHeight x featWidth grid and assigns
// their targets against the ground truth boxes of an image.  An empty ground
// truth list is valid and labels every in bounds anchor as background before
// sampling
func (a *Assigner) Assign(featHeight, featWidth int, gt []GroundTruth, info ImageInfo) (*Targets, error) {

	if featHeight <= 0 || featWidth <= 0 {
		return nil, fmt.Errorf("invalid feature grid %dx%d", featHeight, featWidth)
	}

	p := a.Params
	anchors := Generate(featHeight, featWidth, p.FeatStride, p.Scales, p.Ratios)

	t := &Targets{
		FeatHeight:  featHeight,
		FeatWidth:   featWidth,
		NumAnchors:  p.NumAnchors(),
		Anchors:     anchors,
		Labels:      make([]Label, len(anchors)),
		BBoxTargets: make([][4]float32, len(anchors)),
		BBoxWeights: make([][4]float32, len(anchors)),
	}

	// only keep anchors inside the image
	border := float32(p.AllowedBorder)
	inside := make([]int, 0, len(anchors))

	for i, b := range anchors {
		t.Labels[i] = Ignore

		if b.Inside(info.Height, info.Width, border) {
			inside = append(inside, i)
		}
	}

	gt, valid := validBoxes(gt)
	matched, uncovered := a.label(t, anchors, inside, gt)

	for _, j := range uncovered {
		t.Uncovered = append(t.Uncovered, valid[j])
	}

	a.sample(t)

	for i, l := range t.Labels {
		if l != Positive {
			continue
		}

		target := Transform(anchors[i], gt[matched[i]].Box)

		if p.NormalizeTarget {
			target = normalize(target, p.BBoxMean, p.BBoxStd)
		}

		t.BBoxTargets[i] = target
		t.BBoxWeights[i] = p.BBoxWeights
	}

	return t, nil
}

// label applies the overlap thresholds to the in bounds anchors.  It returns
// the matched ground truth index of every anchor and the ground truth boxes
// no in bounds anchor overlaps
func (a *Assigner) label(t *Targets, anchors []Box, inside []int, gt []GroundTruth) ([]int, []int) {

	p := a.Params
	matched := make([]int, len(anchors))
	var uncovered []int

	if len(inside) == 0 {
		for j := range gt {
			uncovered = append(uncovered, j)
		}
		return matched, uncovered
	}

	if len(gt) == 0 {
		for _, i := range inside {
			t.Labels[i] = Negative
		}
		return matched, nil
	}

	sub := make([]Box, len(inside))

	for k, i := range inside {
		sub[k] = anchors[i]
	}

	m := matchOverlaps(Overlaps(sub, gt))

	negatives := func() {
		for k, i := range inside {
			if m.anchorMax[k] < p.NegativeIoU {
				t.Labels[i] = Negative
			}
		}
	}

	if !p.ClobberPositives {
		negatives()
	}

	for k, i := range inside {
		matched[i] = m.anchorGT[k]

		if m.anchorMax[k] >= p.PositiveIoU {
			t.Labels[i] = Positive
		}
	}

	// every ground truth keeps its best anchor, even below the threshold,
	// as long as that anchor overlaps it at all
	for j, k := range m.gtAnchor {
		if m.gtMax[j] <= 0 {
			uncovered = append(uncovered, j)
			continue
		}

		t.Labels[inside[k]] = Positive
	}

	if p.ClobberPositives {
		negatives()
	}

	return matched, uncovered
}

// sample demotes surplus positive and negative anchors to Ignore so the
// number of labelled anchors stays within the budget
func (a *Assigner) sample(t *Targets) {

	p := a.Params
	numFg := int(float32(p.BatchSize) * p.FgFraction)

	fg := indicesOf(t.Labels, Positive)

	if len(fg) > numFg {
		for _, i := range a.choose(fg, len(fg)-numFg) {
			t.Labels[i] = Ignore
		}
	}

	numBg := p.BatchSize - t.Count(Positive)
	bg := indicesOf(t.Labels, Negative)

	if len(bg) > numBg {
		for _, i := range a.choose(bg, len(bg)-max(numBg, 0)) {
			t.Labels[i] = Ignore
		}
	}
}

// choose picks n distinct entries of idx at random
func (a *Assigner) choose(idx []int, n int) []int {

	pick := make([]int, len(idx))
	copy(pick, idx)

	a.rng.Shuffle(len(pick), func(i, j int) {
		pick[i], pick[j] = pick[j], pick[i]
	})

	return pick[:n]
}

// indicesOf returns the positions of labels equal to l
func indicesOf(labels []Label, l Label) []int {

	var idx []int

	for i, v := range labels {
		if v == l {
			idx = append(idx, i)
		}
	}

	return idx
}

// validBoxes drops ground truth boxes without area, which have no
// regression target.  It also returns the original index of every kept box
func validBoxes(gt []GroundTruth) ([]GroundTruth, []int) {

	out := make([]GroundTruth, 0, len(gt))
	idx := make([]int, 0, len(gt))

	for j, g := range gt {
		if g.Width() > 0 && g.Height() > 0 {
			out = append(out, g)
			idx = append(idx, j)
		}
	}

	return out, idx
}
