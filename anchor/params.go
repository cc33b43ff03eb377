package anchor

import (
	"fmt"
)

// Params defines the anchor generation, matching and sampling settings used
// when assigning training targets
type Params struct {
	// FeatStride is the number of input pixels covered by each feature grid
	// cell
	FeatStride int `yaml:"feat_stride"`
	// Scales are the anchor sizes in multiples of FeatStride
	Scales []float32 `yaml:"anchor_scales"`
	// Ratios are the anchor aspect ratios as height divided by width
	Ratios []float32 `yaml:"anchor_ratios"`
	// AllowedBorder is how many pixels an anchor may extend beyond the image
	// before it is ignored
	AllowedBorder int `yaml:"allowed_border"`
	// PositiveIoU is the minimum best Intersection over Union an anchor needs
	// with any ground truth box to be labelled positive
	PositiveIoU float32 `yaml:"positive_iou"`
	// NegativeIoU is the best Intersection over Union an anchor must stay
	// below to be labelled negative
	NegativeIoU float32 `yaml:"negative_iou"`
	// ClobberPositives applies the negative threshold after the positive
	// rules, so a forced positive with low overlap becomes negative
	ClobberPositives bool `yaml:"clobber_positives"`
	// BatchSize is the sample budget, the maximum number of non ignored
	// anchors per image
	BatchSize int `yaml:"sample_budget"`
	// FgFraction is the maximum fraction of the sample budget that may be
	// positive
	FgFraction float32 `yaml:"fg_fraction"`
	// NormalizeTarget subtracts BBoxMean and divides by BBoxStd on every
	// regression target
	NormalizeTarget bool `yaml:"normalize_target"`
	// BBoxMean is the regression target mean for dx, dy, dw, dh
	BBoxMean [4]float32 `yaml:"bbox_mean"`
	// BBoxStd is the regression target standard deviation for dx, dy, dw, dh
	BBoxStd [4]float32 `yaml:"bbox_std"`
	// BBoxWeights are the regression weights given to positive anchors
	BBoxWeights [4]float32 `yaml:"bbox_weights"`
}

// DefaultParams returns an instance of Params configured with the region
// proposal defaults of:
// - Feature Stride: 16
// - Scales: 8, 16, 32
// - Ratios: 0.5, 1, 2
// - Positive IoU: 0.7
// - Negative IoU: 0.3
// - Sample Budget: 256 with half of it foreground
// - Target Std: 0.1, 0.1, 0.4, 0.4 (only applied when NormalizeTarget is set)
func DefaultParams() Params {
	return Params{
		FeatStride:    16,
		Scales:        []float32{8, 16, 32},
		Ratios:        []float32{0.5, 1, 2},
		AllowedBorder: 0,
		PositiveIoU:   0.7,
		NegativeIoU:   0.3,
		BatchSize:     256,
		FgFraction:    0.5,
		BBoxMean:      [4]float32{0, 0, 0, 0},
		BBoxStd:       [4]float32{0.1, 0.1, 0.4, 0.4},
		BBoxWeights:   [4]float32{1, 1, 1, 1},
	}
}

// NumAnchors returns the number of anchors generated per grid cell
func (p Params) NumAnchors() int {
	return len(p.Scales) * len(p.Ratios)
}

// Validate checks the parameters for values that make assignment impossible
func (p Params) Validate() error {

	if p.FeatStride <= 0 {
		return fmt.Errorf("feat_stride must be positive, got %d", p.FeatStride)
	}

	if len(p.Scales) == 0 || len(p.Ratios) == 0 {
		return fmt.Errorf("anchor scales and ratios must not be empty")
	}

	for _, s := range p.Scales {
		if s <= 0 {
			return fmt.Errorf("anchor scale must be positive, got %v", s)
		}
	}

	for _, r := range p.Ratios {
		if r <= 0 {
			return fmt.Errorf("anchor ratio must be positive, got %v", r)
		}
	}

	if p.NegativeIoU > p.PositiveIoU {
		return fmt.Errorf("negative_iou %v is above positive_iou %v", p.NegativeIoU, p.PositiveIoU)
	}

	if p.BatchSize <= 0 {
		return fmt.Errorf("sample_budget must be positive, got %d", p.BatchSize)
	}

	if p.FgFraction < 0 || p.FgFraction > 1 {
		return fmt.Errorf("fg_fraction must be within [0,1], got %v", p.FgFraction)
	}

	if p.NormalizeTarget {
		for i, s := range p.BBoxStd {
			if s == 0 {
				return fmt.Errorf("bbox_std[%d] must not be zero when normalizing targets", i)
			}
		}
	}

	return nil
}
