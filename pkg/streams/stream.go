package streams

import "strconv"

// Stream is one strictly increasing integer sequence with a read cursor.
// HeadIndex is the index of the next unconsumed element; a stream with
// HeadIndex == len(Data) is exhausted.
type Stream struct {
	ID        int   `json:"id" yaml:"id"`
	Data      []int `json:"data" yaml:"data"`
	HeadIndex int   `json:"head_index" yaml:"head_index"`
}

// Head is the current head of a stream. Live is false once the stream is
// exhausted, in which case Value is meaningless and the stream can never be
// selected.
type Head struct {
	Value int
	Live  bool
}

// Head returns the next unconsumed element of the stream.
func (s Stream) Head() Head {
	if s.HeadIndex >= len(s.Data) {
		return Head{}
	}
	return Head{Value: s.Data[s.HeadIndex], Live: true}
}

// Exhausted reports whether every element has been consumed.
func (s Stream) Exhausted() bool {
	return s.HeadIndex >= len(s.Data)
}

// Remaining returns the number of unconsumed elements.
func (s Stream) Remaining() int {
	if s.Exhausted() {
		return 0
	}
	return len(s.Data) - s.HeadIndex
}

// Clone returns a deep copy of the stream.
func (s Stream) Clone() Stream {
	data := make([]int, len(s.Data))
	copy(data, s.Data)
	return Stream{ID: s.ID, Data: data, HeadIndex: s.HeadIndex}
}

// String renders a head value, using ∞ for an exhausted head.
func (h Head) String() string {
	if !h.Live {
		return "∞"
	}
	return strconv.Itoa(h.Value)
}

// Less orders heads with exhausted heads after every live one.
func (h Head) Less(other Head) bool {
	switch {
	case !h.Live:
		return false
	case !other.Live:
		return true
	default:
		return h.Value < other.Value
	}
}
