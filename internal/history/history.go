// Package history keeps bounded traces of per-step outputs.
package history

// Buffer is a fixed-capacity FIFO of float64 values. Once full, saving a new
// value drops the oldest one.
//
// A nil *Buffer is valid and records nothing, so components can keep an
// optional trace without nil checks at every call site.
type Buffer struct {
	values []float64
	size   int
}

// New returns a buffer holding at most size values, or nil when size is 0.
func New(size int) *Buffer {
	if size <= 0 {
		return nil
	}
	return &Buffer{values: make([]float64, 0, size), size: size}
}

// Save appends v, evicting the oldest value when the buffer is full.
func (b *Buffer) Save(v float64) {
	if b == nil {
		return
	}
	if len(b.values) == b.size {
		copy(b.values, b.values[1:])
		b.values = b.values[:b.size-1]
	}
	b.values = append(b.values, v)
}

// Values returns a copy of the stored values, oldest first.
func (b *Buffer) Values() []float64 {
	if b == nil {
		return nil
	}
	out := make([]float64, len(b.values))
	copy(out, b.values)
	return out
}

// Clear drops all stored values but keeps the capacity.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	b.values = b.values[:0]
}

// Resize changes the capacity. Shrinking keeps the newest values.
func (b *Buffer) Resize(size int) {
	if b == nil || size <= 0 {
		return
	}
	if len(b.values) > size {
		b.values = b.values[len(b.values)-size:]
	}
	vals := make([]float64, len(b.values), size)
	copy(vals, b.values)
	b.values = vals
	b.size = size
}

func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.values)
}

func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return b.size
}
