package deck

import "math/rand/v2"

// shuffle is an in-place Fisher–Yates pass: walk i from the last index down
// and swap it with a uniform j in [0, i].
func shuffle[T any](cards []T, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
