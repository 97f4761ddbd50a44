// Package streams generates the reproducible input of a k-way merge: K
// strictly increasing integer sequences drawn from a single seeded generator.
//
// Streams consume the generator one after another, stream 0 fully before
// stream 1, so the same (seed, k, length) always produces identical data and
// changing length shifts every later stream.
package streams

const (
	// baseSpread bounds the first value of each stream: base in [0, 20).
	baseSpread = 20
	// maxIncrement bounds the gap between neighbours: increment in [1, 10].
	maxIncrement = 10
)

// Generate produces k streams of length elements each from seed.
func Generate(seed int64, k, length int) ([]Stream, error) {
	if k < 1 {
		return nil, InvalidConfigurationError("generate", "streams", k)
	}
	if length < 1 {
		return nil, InvalidConfigurationError("generate", "stream_length", length)
	}

	rng := NewMulberry32(seed)
	out := make([]Stream, k)
	for i := 0; i < k; i++ {
		data := make([]int, length)
		base := rng.Intn(baseSpread)
		for j := 0; j < length; j++ {
			base += rng.Intn(maxIncrement) + 1
			data[j] = base
		}
		out[i] = Stream{ID: i, Data: data}
	}
	return out, nil
}

// StrictlyIncreasing reports whether data is strictly increasing.
func StrictlyIncreasing(data []int) bool {
	for i := 1; i < len(data); i++ {
		if data[i] <= data[i-1] {
			return false
		}
	}
	return true
}
