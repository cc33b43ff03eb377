package vidbatch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AnnotationStore supplies the records of a dataset.  The returned slice is
// treated as immutable by the loaders
type AnnotationStore interface {
	Records() ([]VideoRecord, error)
}

// annotationObject is one labelled box in an annotation file
type annotationObject struct {
	Class string     `yaml:"class"`
	Box   [4]float32 `yaml:"box"`
}

// annotationFrame is one annotated frame of a sequence
type annotationFrame struct {
	ID      int                `yaml:"id"`
	Objects []annotationObject `yaml:"objects"`
}

// annotationSequence is one video segment
type annotationSequence struct {
	Pattern     string            `yaml:"pattern"`
	FrameSegLen int               `yaml:"frame_seg_len"`
	Width       int               `yaml:"width"`
	Height      int               `yaml:"height"`
	Frames      []annotationFrame `yaml:"frames"`
}

// annotationImage is a standalone image
type annotationImage struct {
	Image   string             `yaml:"image"`
	Width   int                `yaml:"width"`
	Height  int                `yaml:"height"`
	Objects []annotationObject `yaml:"objects"`
}

// annotationFile is the YAML document read by FileStore
type annotationFile struct {
	Sequences []annotationSequence `yaml:"sequences"`
	Images    []annotationImage    `yaml:"images"`
}

// FileStore reads records from a YAML annotation file of the form
//
//	sequences:
//	  - pattern: train/ILSVRC2015_train_00005003/%06d.JPEG
//	    frame_seg_len: 300
//	    width: 1280
//	    height: 720
//	    frames:
//	      - id: 0
//	        objects:
//	          - class: n02691156
//	            box: [10, 20, 300, 200]
//	images:
//	  - image: DET/ILSVRC2013_train_00000001.JPEG
//	    width: 500
//	    height: 375
//
// Class names are resolved to indices through the labels file.  Relative
// image paths are joined to Root
type FileStore struct {
	// AnnotationFile is the path of the YAML annotation file
	AnnotationFile string
	// LabelFile is the path of the class names file, see LoadLabels
	LabelFile string
	// Root is prefixed to relative image paths and patterns
	Root string
}

// Records reads and validates the annotation file.  Sequence frames are
// returned in file order followed by standalone images
func (s FileStore) Records() ([]VideoRecord, error) {

	labels, err := LoadLabels(s.LabelFile)

	if err != nil {
		return nil, fmt.Errorf("error loading labels: %w", err)
	}

	index, err := NewLabelIndex(labels)

	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.AnnotationFile)

	if err != nil {
		return nil, fmt.Errorf("error reading annotation file: %w", err)
	}

	var doc annotationFile

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: error parsing annotation file: %w", ErrData, err)
	}

	var records []VideoRecord

	for _, seq := range doc.Sequences {
		pattern := s.path(seq.Pattern)

		for _, fr := range seq.Frames {
			boxes, err := toBoxes(fr.Objects, index)

			if err != nil {
				return nil, fmt.Errorf("sequence %s frame %d: %w", seq.Pattern, fr.ID, err)
			}

			r := VideoRecord{
				Pattern:     pattern,
				FrameSegLen: seq.FrameSegLen,
				FrameSegID:  fr.ID,
				Width:       seq.Width,
				Height:      seq.Height,
				Boxes:       boxes,
			}
			r.Image = r.FramePath(fr.ID)

			records = append(records, r)
		}
	}

	for _, im := range doc.Images {
		boxes, err := toBoxes(im.Objects, index)

		if err != nil {
			return nil, fmt.Errorf("image %s: %w", im.Image, err)
		}

		records = append(records, VideoRecord{
			Image:       s.path(im.Image),
			FrameSegLen: 1,
			Width:       im.Width,
			Height:      im.Height,
			Boxes:       boxes,
		})
	}

	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	return records, nil
}

// path joins relative paths to the store root
func (s FileStore) path(p string) string {

	if s.Root == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(s.Root, p)
}

// toBoxes resolves the class names of annotation objects
func toBoxes(objects []annotationObject, index LabelIndex) ([]Box, error) {

	boxes := make([]Box, 0, len(objects))

	for _, o := range objects {
		c, err := index.Class(o.Class)

		if err != nil {
			return nil, err
		}

		boxes = append(boxes, Box{
			X1:    o.Box[0],
			Y1:    o.Box[1],
			X2:    o.Box[2],
			Y2:    o.Box[3],
			Class: c,
		})
	}

	return boxes, nil
}
