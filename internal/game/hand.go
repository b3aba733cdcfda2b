package game

import "math/rand"

// dealHand draws size distinct answer-card indices from a catalog of
// total cards, without replacement within the draw.
func dealHand(rng *rand.Rand, total, size int) []int {
	if size > total {
		size = total
	}
	return rng.Perm(total)[:size]
}

// replaceSlot swaps the submitted slot for one fresh uniform draw. The
// replacement is allowed to duplicate another card already in hand;
// cards are fungible once drawn.
func replaceSlot(hand []int, index int, rng *rand.Rand, total int) []int {
	out := make([]int, len(hand))
	copy(out, hand)
	out[index] = rng.Intn(total)
	return out
}
