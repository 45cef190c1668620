package session

import "math/rand"

// ShuffleMap is a bijection between original and displayed answer positions.
// One is generated per question when a quiz session starts or restarts and
// kept for the whole session, so revisiting a question shows the same order.
type ShuffleMap struct {
	toOriginal []int
	toShuffled []int
}

// NewShuffleMap draws a random permutation of n positions.
func NewShuffleMap(n int, rng *rand.Rand) ShuffleMap {
	perm := identity(n)
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return newShuffleMap(perm)
}

// IdentityShuffleMap keeps answers in their original order.
func IdentityShuffleMap(n int) ShuffleMap {
	return newShuffleMap(identity(n))
}

func newShuffleMap(toOriginal []int) ShuffleMap {
	toShuffled := make([]int, len(toOriginal))
	for shuffled, original := range toOriginal {
		toShuffled[original] = shuffled
	}
	return ShuffleMap{toOriginal: toOriginal, toShuffled: toShuffled}
}

// Original returns the original index shown at a displayed position.
func (m ShuffleMap) Original(shuffled int) int {
	return m.toOriginal[shuffled]
}

// Shuffled returns the displayed position of an original index.
func (m ShuffleMap) Shuffled(original int) int {
	return m.toShuffled[original]
}

func (m ShuffleMap) Len() int {
	return len(m.toOriginal)
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func shuffleIDs(ids []string, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
