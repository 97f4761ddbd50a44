package merge

import (
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMergeInvariants uses property-based testing to verify merge invariants
// These properties should hold for every seed and stream shape
func TestMergeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property 1: the output is the sorted union of every stream
	properties.Property("output is the full sorted merge", prop.ForAll(
		func(seed int64, k, length int) bool {
			e, err := New(Config{Seed: seed, Streams: k, StreamLength: length})
			if err != nil {
				return false
			}

			var all []int
			for _, s := range e.Snapshot().Streams {
				all = append(all, s.Data...)
			}
			sort.Ints(all)

			steps := e.Run()
			out := e.Snapshot().Output
			return steps == k*length && reflect.DeepEqual(all, out)
		},
		gen.Int64(),
		gen.IntRange(1, 16),
		gen.IntRange(1, 32),
	))

	// Property 2: each step adds exactly live-1 comparisons
	properties.Property("comparison delta equals live streams minus one", prop.ForAll(
		func(seed int64, k, length int) bool {
			e, err := New(Config{Seed: seed, Streams: k, StreamLength: length})
			if err != nil {
				return false
			}

			prev := 0
			for {
				live := 0
				for _, h := range e.Heads() {
					if h.Live {
						live++
					}
				}
				if !e.Step() {
					return live == 0 && e.Comparisons() == prev
				}
				if e.Comparisons()-prev != live-1 {
					return false
				}
				prev = e.Comparisons()
			}
		},
		gen.Int64(),
		gen.IntRange(1, 12),
		gen.IntRange(1, 12),
	))

	// Property 3: equal heads resolve to the lowest stream id
	properties.Property("ties advance the lowest stream id", prop.ForAll(
		func(seed int64, k, length int) bool {
			e, err := New(Config{Seed: seed, Streams: k, StreamLength: length})
			if err != nil {
				return false
			}

			for {
				heads := e.Heads()
				if !e.Step() {
					return true
				}
				last := e.Snapshot().Last
				for id, h := range heads {
					if h.Live && h.Value == last.Value {
						if id != last.StreamID {
							return false
						}
						break
					}
				}
			}
		},
		gen.Int64(),
		gen.IntRange(2, 12),
		gen.IntRange(1, 12),
	))

	// Property 4: a reset replays the same trace
	properties.Property("reset reproduces the trace", prop.ForAll(
		func(seed int64, k, length int) bool {
			e, err := New(Config{Seed: seed, Streams: k, StreamLength: length})
			if err != nil {
				return false
			}
			e.Run()
			first := e.Trace()
			firstCount := e.Comparisons()

			e.Reset()
			e.Run()
			return reflect.DeepEqual(first, e.Trace()) && firstCount == e.Comparisons()
		},
		gen.Int64(),
		gen.IntRange(1, 8),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
