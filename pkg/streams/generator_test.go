package streams

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name     string
		seed     int64
		k        int
		length   int
		expected [][]int
	}{
		{
			name:     "seed 1, two streams",
			seed:     1,
			k:        2,
			length:   3,
			expected: [][]int{{13, 19, 29}, {22, 29, 37}},
		},
		{
			name:     "seed 1, single stream",
			seed:     1,
			k:        1,
			length:   3,
			expected: [][]int{{13, 19, 29}},
		},
		{
			name:     "negative seed",
			seed:     -5,
			k:        2,
			length:   3,
			expected: [][]int{{10, 20, 28}, {28, 34, 40}},
		},
		{
			name:   "seed 42, eight streams",
			seed:   42,
			k:      8,
			length: 5,
			expected: [][]int{
				{17, 26, 33, 35, 41},
				{12, 21, 26, 29, 38},
				{18, 20, 26, 33, 40},
				{5, 14, 15, 21, 22},
				{6, 8, 16, 22, 23},
				{12, 17, 26, 30, 35},
				{1, 7, 13, 16, 23},
				{8, 16, 25, 31, 34},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.seed, tt.k, tt.length)
			require.NoError(t, err)
			require.Len(t, got, tt.k)
			for i, s := range got {
				assert.Equal(t, i, s.ID)
				assert.Equal(t, 0, s.HeadIndex)
				assert.Equal(t, tt.expected[i], s.Data, "stream %d", i)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(42, 8, 5)
	require.NoError(t, err)
	second, err := Generate(42, 8, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_SequentialCoupling(t *testing.T) {
	short, err := Generate(1, 2, 3)
	require.NoError(t, err)
	long, err := Generate(1, 2, 4)
	require.NoError(t, err)

	// Stream 0 extends; stream 1 starts from a different point in the sequence.
	assert.Equal(t, short[0].Data, long[0].Data[:3])
	assert.Equal(t, []int{12, 20, 25, 35}, long[1].Data)
	assert.NotEqual(t, short[1].Data, long[1].Data[:3])
}

func TestGenerate_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		k      int
		length int
		field  string
	}{
		{"zero streams", 0, 5, "streams"},
		{"negative streams", -1, 5, "streams"},
		{"zero length", 3, 0, "stream_length"},
		{"negative length", 3, -2, "stream_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(1, tt.k, tt.length)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, IsInvalidConfiguration(err))
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestStream_Head(t *testing.T) {
	s := Stream{ID: 0, Data: []int{3, 7}}

	assert.Equal(t, Head{Value: 3, Live: true}, s.Head())
	assert.Equal(t, 2, s.Remaining())

	s.HeadIndex = 2
	assert.False(t, s.Head().Live)
	assert.True(t, s.Exhausted())
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, "∞", s.Head().String())
}

func TestHead_Less(t *testing.T) {
	live3 := Head{Value: 3, Live: true}
	live5 := Head{Value: 5, Live: true}
	dead := Head{}

	assert.True(t, live3.Less(live5))
	assert.False(t, live5.Less(live3))
	assert.False(t, live3.Less(live3))
	assert.True(t, live5.Less(dead))
	assert.False(t, dead.Less(live3))
	assert.False(t, dead.Less(dead))
}

func TestStream_CloneIsIndependent(t *testing.T) {
	s := Stream{ID: 1, Data: []int{1, 2, 3}, HeadIndex: 1}
	c := s.Clone()
	c.Data[0] = 100
	c.HeadIndex = 3

	assert.Equal(t, 1, s.Data[0])
	assert.Equal(t, 1, s.HeadIndex)
}

func TestStrictlyIncreasing(t *testing.T) {
	assert.True(t, StrictlyIncreasing(nil))
	assert.True(t, StrictlyIncreasing([]int{1}))
	assert.True(t, StrictlyIncreasing([]int{1, 2, 9}))
	assert.False(t, StrictlyIncreasing([]int{1, 1}))
	assert.False(t, StrictlyIncreasing([]int{3, 2}))
}
