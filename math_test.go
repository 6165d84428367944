package tsmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EinfachAndy/tsmap"
)

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, uint64(0), tsmap.NextPowerOf2(0))
	assert.Equal(t, uint64(1), tsmap.NextPowerOf2(1))
	assert.Equal(t, uint64(2), tsmap.NextPowerOf2(2))
	assert.Equal(t, uint64(4), tsmap.NextPowerOf2(3))
	assert.Equal(t, uint64(4), tsmap.NextPowerOf2(4))
	assert.Equal(t, uint64(8), tsmap.NextPowerOf2(5))
	assert.Equal(t, uint64(8), tsmap.NextPowerOf2(7))
	assert.Equal(t, uint64(8), tsmap.NextPowerOf2(8))
	assert.Equal(t, uint64(16), tsmap.NextPowerOf2(9))
	assert.Equal(t, uint64(16), tsmap.NextPowerOf2(10))
	assert.Equal(t, uint64(16), tsmap.NextPowerOf2(15))
	assert.Equal(t, uint64(16), tsmap.NextPowerOf2(16))
	assert.Equal(t, uint64(1024), tsmap.NextPowerOf2(1000))
	assert.Equal(t, uint64(2048), tsmap.NextPowerOf2(2000))
}
