package vidbatch

import (
	"fmt"
	"strings"
)

// Box is a ground truth bounding box in pixel coordinates of the natural
// (unscaled) image
type Box struct {
	X1 float32
	Y1 float32
	X2 float32
	Y2 float32
	// Class is the line number of the class name in the labels file
	Class int
}

// VideoRecord describes one annotated frame of a video segment, or a
// standalone image when Pattern is empty
type VideoRecord struct {
	// Image is the path of the annotated frame
	Image string
	// Pattern is a printf style template containing a frame number verb, eg:
	// "train/ILSVRC2015_train_00005003/%06d.JPEG".  Frames sharing a pattern
	// belong to the same sequence
	Pattern string
	// FrameSegLen is the number of frames in the sequence
	FrameSegLen int
	// FrameSegID is the frame number of this record within its sequence
	FrameSegID int
	// Width is the natural image width in pixels
	Width int
	// Height is the natural image height in pixels
	Height int
	// Boxes are the ground truth objects in this frame
	Boxes []Box
}

// IsStill returns true if the record is a standalone image rather than a
// frame of a video sequence
func (r VideoRecord) IsStill() bool {
	return r.Pattern == ""
}

// SequenceKey returns the key shared by all frames of the record's sequence
func (r VideoRecord) SequenceKey() string {
	if r.IsStill() {
		return r.Image
	}
	return r.Pattern
}

// FramePath returns the file path of frame id of the record's sequence.  A
// still image always returns its own path
func (r VideoRecord) FramePath(id int) string {
	if r.IsStill() {
		return r.Image
	}
	return fmt.Sprintf(r.Pattern, id)
}

// Validate checks the record fields required by the loaders
func (r VideoRecord) Validate() error {

	if r.Image == "" && r.IsStill() {
		return fmt.Errorf("%w: record has neither image nor pattern", ErrData)
	}

	if !r.IsStill() {
		if !strings.Contains(r.Pattern, "%") {
			return fmt.Errorf("%w: pattern %q has no frame number verb", ErrData, r.Pattern)
		}

		if r.FrameSegLen <= 0 {
			return fmt.Errorf("%w: sequence %q is missing frame_seg_len", ErrData, r.Pattern)
		}

		if r.FrameSegID < 0 || r.FrameSegID >= r.FrameSegLen {
			return fmt.Errorf("%w: frame_seg_id %d out of range [0-%d) for %q",
				ErrData, r.FrameSegID, r.FrameSegLen, r.Pattern)
		}
	}

	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: invalid image size %dx%d for %q", ErrData,
			r.Width, r.Height, r.SequenceKey())
	}

	for i, b := range r.Boxes {
		if b.X2 < b.X1 || b.Y2 < b.Y1 {
			return fmt.Errorf("%w: box %d of %q is inverted", ErrData, i, r.SequenceKey())
		}

		if b.Class < 0 {
			return fmt.Errorf("%w: box %d of %q has negative class", ErrData, i, r.SequenceKey())
		}
	}

	return nil
}

// ValidateRecords validates every record, the returned error names the
// offending record index
func ValidateRecords(records []VideoRecord) error {

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	return nil
}
