package vidbatch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the class names used to train the detector from the given
// text file.  It should contain one label per line, the line number (from
// zero) being the class index.  Blank lines are skipped
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// LabelIndex maps class names to their class index
type LabelIndex map[string]int

// NewLabelIndex returns the index of the given labels, duplicated names are
// rejected
func NewLabelIndex(labels []string) (LabelIndex, error) {

	idx := make(LabelIndex, len(labels))

	for i, l := range labels {
		if _, ok := idx[l]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrData, l)
		}

		idx[l] = i
	}

	return idx, nil
}

// Class returns the class index of name
func (l LabelIndex) Class(name string) (int, error) {

	c, ok := l[name]

	if !ok {
		return 0, fmt.Errorf("%w: unknown class %q", ErrData, name)
	}

	return c, nil
}
