package streams

// mulberry32Increment is the Weyl sequence constant of mulberry32.
const mulberry32Increment = 0x6D2B79F5

// Mulberry32 is a small, fast, seedable 32-bit generator. It is not suitable
// for anything but reproducible demo data.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator from the low 32 bits of seed.
func NewMulberry32(seed int64) *Mulberry32 {
	return &Mulberry32{state: uint32(seed)}
}

// Uint32 returns the next raw 32-bit value.
func (m *Mulberry32) Uint32() uint32 {
	m.state += mulberry32Increment
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

// Intn returns floor(Float64() * n).
func (m *Mulberry32) Intn(n int) int {
	return int(m.Float64() * float64(n))
}
