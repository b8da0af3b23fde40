package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockSizeBoundaries(t *testing.T) {
	assert.Equal(t, minBlockSize, BlockSize(10*mib))
	assert.Equal(t, maxBlockSize, BlockSize(32*gib))

	mid := BlockSize(8 * gib)
	assert.Greater(t, mid, minBlockSize)
	assert.Less(t, mid, maxBlockSize)
}

func TestSplitBlocksCoversAllDataAndVerifies(t *testing.T) {
	data := make([]byte, 300*1024)
	for i := range data {
		data[i] = byte(i)
	}

	blocks := SplitBlocks(data)
	a := assert.New(t)
	a.NotEmpty(blocks)

	var total int
	for _, b := range blocks {
		a.True(b.Verify())
		total += len(b.Data)
	}
	a.Equal(len(data), total)
}

func TestBlockVerifyDetectsCorruption(t *testing.T) {
	b := NewBlock(0, []byte("hello world"))
	b.Data[0] ^= 0xFF
	assert.False(t, b.Verify())
}
