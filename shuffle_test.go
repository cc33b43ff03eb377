package vidbatch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkOrderKept checks records of one sequence keep their relative order
// inside every run of consecutive index entries
func chunkOrderKept(t *testing.T, records []VideoRecord, idx DatasetIndex) {

	for i := 1; i < len(idx); i++ {
		a, b := records[idx[i-1]], records[idx[i]]

		if !a.IsStill() && a.SequenceKey() == b.SequenceKey() && idx[i] == idx[i-1]+1 {
			assert.Less(t, a.FrameSegID, b.FrameSegID)
		}
	}
}

func TestSequenceShuffleMultiset(t *testing.T) {

	var records []VideoRecord
	records = append(records, sequence("a", 23, 10, 10)...)
	records = append(records, still("s1", 10, 10))
	records = append(records, sequence("b", 7, 10, 10)...)
	records = append(records, still("s2", 10, 10))
	records = append(records, sequence("c", 10, 10, 10)...)

	for _, n := range []int{0, 1, 5, len(records)} {
		rng := rand.New(rand.NewSource(int64(n)))
		idx := SequenceShuffle(records[:n], rng)

		require.Len(t, idx, n)
		assert.ElementsMatch(t, SequentialIndex(n), idx)
		chunkOrderKept(t, records[:n], idx)
	}
}

func TestSequenceShuffleChunks(t *testing.T) {

	var records []VideoRecord
	records = append(records, sequence("a", 23, 10, 10)...)
	records = append(records, still("s1", 10, 10))
	records = append(records, sequence("b", 7, 10, 10)...)

	idx := SequenceShuffle(records, rand.New(rand.NewSource(3)))

	// chunks are [0-10) [10-20) [20-23) [23] [24-31), each appears as a
	// contiguous ascending run
	chunks := [][2]int{{0, 10}, {10, 20}, {20, 23}, {23, 24}, {24, 31}}

	for _, c := range chunks {
		start := -1

		for p, v := range idx {
			if v == c[0] {
				start = p
			}
		}

		require.NotEqual(t, -1, start)

		for k := 0; k < c[1]-c[0]; k++ {
			assert.Equal(t, c[0]+k, idx[start+k], "chunk starting at %d", c[0])
		}
	}

	chunkOrderKept(t, records, idx)
}

func TestSequenceShuffleReproducible(t *testing.T) {

	records := append(sequence("a", 40, 10, 10), sequence("b", 40, 10, 10)...)

	a := SequenceShuffle(records, rand.New(rand.NewSource(9)))
	b := SequenceShuffle(records, rand.New(rand.NewSource(9)))

	assert.Equal(t, a, b)
}

func TestAspectGroupShuffle(t *testing.T) {

	var records []VideoRecord

	for i := 0; i < 7; i++ {
		records = append(records, still("h", 10, 20))
	}

	for i := 0; i < 6; i++ {
		records = append(records, still("v", 20, 10))
	}

	idx := AspectGroupShuffle(records, 4, rand.New(rand.NewSource(5)))
	require.Len(t, idx, 13)

	assert.ElementsMatch(t, SequentialIndex(13), idx)

	// the remainder keeps its place at the end and is portrait
	assert.GreaterOrEqual(t, idx[12], 7)

	// every full row is taken from the grouped order so at most one row
	// mixes landscape and portrait images
	mixed := 0

	for r := 0; r < 3; r++ {
		horz := 0

		for _, i := range idx[r*4 : (r+1)*4] {
			if i < 7 {
				horz++
			}
		}

		if horz != 0 && horz != 4 {
			mixed++
		}
	}

	assert.LessOrEqual(t, mixed, 1)
}

func TestAspectGroupShuffleExactRows(t *testing.T) {

	var records []VideoRecord

	for i := 0; i < 8; i++ {
		records = append(records, still("h", 10, 20))
	}

	idx := AspectGroupShuffle(records, 4, rand.New(rand.NewSource(1)))

	assert.ElementsMatch(t, SequentialIndex(8), idx)

	assert.Empty(t, AspectGroupShuffle(nil, 4, rand.New(rand.NewSource(1))))
}
