package vidbatch

import (
	"math/rand"
)

// MaxChunkLen is the maximum number of consecutive frames of one sequence
// kept together when shuffling
const MaxChunkLen = 10

// DatasetIndex maps a read position to a record index.  It is rebuilt at
// every epoch reset and read only afterwards
type DatasetIndex []int

// ShuffleObserver is called after the dataset index has been rebuilt with
// the index before and after shuffling
type ShuffleObserver func(before, after DatasetIndex)

// SequentialIndex returns the identity index over n records
func SequentialIndex(n int) DatasetIndex {

	idx := make(DatasetIndex, n)

	for i := range idx {
		idx[i] = i
	}

	return idx
}

// SequenceShuffle groups consecutive records of the same sequence into chunks
// of at most MaxChunkLen records, shuffles the order of the chunks and
// flattens them back into an index.  Record order inside a chunk is kept.
// Standalone images always form a chunk of their own
func SequenceShuffle(records []VideoRecord, rng *rand.Rand) DatasetIndex {

	chunks := make([][]int, 0, len(records)/MaxChunkLen+1)
	var open []int
	prevKey := ""

	flush := func() {
		if len(open) != 0 {
			chunks = append(chunks, open)
			open = nil
		}
	}

	for i, r := range records {
		if r.IsStill() {
			flush()
			chunks = append(chunks, []int{i})
			prevKey = ""
			continue
		}

		key := r.SequenceKey()

		if key != prevKey || len(open) >= MaxChunkLen {
			flush()
		}

		open = append(open, i)
		prevKey = key
	}

	flush()

	rng.Shuffle(len(chunks), func(i, j int) {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	})

	idx := make(DatasetIndex, 0, len(records))

	for _, c := range chunks {
		idx = append(idx, c...)
	}

	return idx
}

// AspectGroupShuffle groups landscape (width >= height) and portrait records
// so batches hold images of similar aspect.  Each group is permuted, the
// landscape group is placed first, then whole rows of batchSize entries are
// permuted.  The remainder that does not fill a row keeps its place at the
// end of the index
func AspectGroupShuffle(records []VideoRecord, batchSize int, rng *rand.Rand) DatasetIndex {

	var horz, vert []int

	for i, r := range records {
		if r.Width >= r.Height {
			horz = append(horz, i)
		} else {
			vert = append(vert, i)
		}
	}

	permute := func(s []int) {
		rng.Shuffle(len(s), func(i, j int) {
			s[i], s[j] = s[j], s[i]
		})
	}

	permute(horz)
	permute(vert)

	inds := append(horz, vert...)

	if batchSize <= 0 {
		return DatasetIndex(inds)
	}

	rows := len(inds) / batchSize
	order := rng.Perm(rows)
	idx := make(DatasetIndex, len(inds))

	for dst, src := range order {
		copy(idx[dst*batchSize:(dst+1)*batchSize], inds[src*batchSize:(src+1)*batchSize])
	}

	// remainder is trimmed from the row permutation
	copy(idx[rows*batchSize:], inds[rows*batchSize:])

	return idx
}
