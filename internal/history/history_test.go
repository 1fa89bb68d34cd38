package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_SaveEvictsOldest(t *testing.T) {
	b := New(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		b.Save(v)
	}

	assert.Equal(t, []float64{3, 4, 5}, b.Values())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 3, b.Cap())
}

func TestBuffer_ValuesIsCopy(t *testing.T) {
	b := New(2)
	b.Save(1)
	vals := b.Values()
	vals[0] = 42

	assert.Equal(t, []float64{1}, b.Values())
}

func TestBuffer_Clear(t *testing.T) {
	b := New(2)
	b.Save(1)
	b.Save(2)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, b.Cap())
}

func TestBuffer_Resize(t *testing.T) {
	b := New(4)
	for _, v := range []float64{1, 2, 3, 4} {
		b.Save(v)
	}

	b.Resize(2)
	assert.Equal(t, []float64{3, 4}, b.Values())

	b.Resize(3)
	b.Save(5)
	assert.Equal(t, []float64{3, 4, 5}, b.Values())
}

func TestBuffer_Nil(t *testing.T) {
	b := New(0)
	assert.Nil(t, b)

	b.Save(1)
	b.Clear()
	b.Resize(3)
	assert.Nil(t, b.Values())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Cap())
}
