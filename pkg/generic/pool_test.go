package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, func(b *bytes.Buffer) { b.Reset() })

	buf := p.Get()
	buf.WriteString("frame")
	p.Put(buf)

	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 0, p.Get().Len())
}

func TestPoolWithoutReset(t *testing.T) {
	p := NewPool(func() []int { return make([]int, 0, 4) }, nil)
	s := p.Get()
	assert.Equal(t, 4, cap(s))
	p.Put(s)
}
