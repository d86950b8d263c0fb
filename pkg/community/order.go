package community

import (
	"math/rand/v2"
)

// OrderFunc decides the order in which a pass visits nodes. It must return
// a permutation of its input and must not modify the input slice.
type OrderFunc func(nodes []string) []string

// SequentialOrder visits nodes in graph insertion order. Detection becomes
// fully deterministic.
func SequentialOrder() OrderFunc {
	return func(nodes []string) []string {
		out := make([]string, len(nodes))
		copy(out, nodes)
		return out
	}
}

// ShuffleOrder visits nodes in an order drawn from rng. The returned
// function shares rng and must not be used from several goroutines.
func ShuffleOrder(rng *rand.Rand) OrderFunc {
	return func(nodes []string) []string {
		out := make([]string, len(nodes))
		copy(out, nodes)
		rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
		return out
	}
}

// SeededOrder is ShuffleOrder over a PCG source seeded with seed, giving a
// reproducible randomized visitation order.
func SeededOrder(seed uint64) OrderFunc {
	return ShuffleOrder(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// RandomOrder is ShuffleOrder over a freshly seeded source.
func RandomOrder() OrderFunc {
	return SeededOrder(rand.Uint64())
}
