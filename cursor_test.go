package vidbatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPartitionedCursor(t *testing.T) {

	tests := []struct {
		name    string
		workers int
		size    int
		ok      bool
	}{
		{"single worker", 1, 7, true},
		{"even split", 4, 12, true},
		{"size not divisible", 4, 10, false},
		{"zero workers", 0, 10, false},
		{"empty dataset", 2, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewPartitionedCursor(tc.workers, tc.size)

			if !tc.ok {
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.workers, c.Workers())
			assert.Equal(t, tc.size/tc.workers, c.PartitionLen())
		})
	}
}

func TestCursorOffsets(t *testing.T) {

	c, err := NewPartitionedCursor(3, 12)
	require.NoError(t, err)

	tests := []struct {
		step int
		want []int
	}{
		{0, []int{0, 4, 8}},
		{3, []int{1, 5, 9}},
		{9, []int{3, 7, 11}},
		{12, []int{0, 4, 8}},
		{15, []int{1, 5, 9}},
	}

	for _, tc := range tests {
		got, err := c.Offsets(tc.step)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "step %d", tc.step)
	}
}

func TestCursorReturnsToStart(t *testing.T) {

	for _, workers := range []int{1, 2, 3, 5} {
		size := workers * 6

		c, err := NewPartitionedCursor(workers, size)
		require.NoError(t, err)

		start, err := c.Offsets(0)
		require.NoError(t, err)

		// one step per worker per advance, S/D advances
		end, err := c.Offsets(workers * (size / workers))
		require.NoError(t, err)

		assert.Equal(t, start, end, "%d workers", workers)
	}
}

func TestCursorInvalidStep(t *testing.T) {

	c, err := NewPartitionedCursor(2, 8)
	require.NoError(t, err)

	_, err = c.Offset(0, 3)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = c.Offset(2, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = c.Offsets(-2)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSplitWorkload(t *testing.T) {

	tests := []struct {
		name     string
		batch    int
		workLoad []int
		want     []Slice
		ok       bool
	}{
		{"equal", 4, []int{1, 1}, []Slice{{0, 2}, {2, 4}}, true},
		{"weighted", 6, []int{1, 2}, []Slice{{0, 2}, {2, 6}}, true},
		{"rounding excess trimmed", 5, []int{1, 1, 1}, []Slice{{0, 2}, {2, 4}, {4, 5}}, true},
		{"too few entries", 1, []int{1, 1}, nil, false},
		{"empty work load", 4, nil, nil, false},
		{"zero work load", 4, []int{1, 0}, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitWorkload(tc.batch, tc.workLoad)

			if !tc.ok {
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitBySegmentLength(t *testing.T) {

	records := []VideoRecord{
		sequence("a", 10, 8, 8)[0],
		sequence("b", 4, 8, 8)[0],
		sequence("c", 3, 8, 8)[0],
		sequence("d", 2, 8, 8)[0],
		still("e", 8, 8),
	}

	shards, err := SplitBySegmentLength(records, 2)
	require.NoError(t, err)
	require.Len(t, shards, 2)

	// a:10 -> w0, b:4 -> w1, c:3 -> w1 (7), d:2 -> w1 (9), e:1 -> w1 (10)
	keys := func(rs []VideoRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.SequenceKey())
		}
		return out
	}

	assert.Equal(t, []string{"a/%06d.JPEG"}, keys(shards[0]))
	assert.Equal(t, []string{"b/%06d.JPEG", "c/%06d.JPEG", "d/%06d.JPEG", "e.JPEG"}, keys(shards[1]))

	_, err = SplitBySegmentLength(records, 0)
	assert.True(t, errors.Is(err, ErrConfiguration))
}
