package p2p

import (
	"github.com/OneOfOne/xxhash"
)

const (
	mib = 1 << 20
	gib = 1 << 30

	minBlockSize = 128 * 1024 // 128 KiB
	maxBlockSize = 16 * mib
)

// BlockSize implements spec §4.7's transfer/1 size-based block sizing:
// "128 KiB for <250 MiB, up to 16 MiB for >16 GiB," scaling linearly for
// everything in between so a mid-sized file doesn't pay either extreme's
// block-count or per-block-overhead cost.
func BlockSize(fileSize int64) int {
	const (
		lowThreshold  = 250 * mib
		highThreshold = 16 * gib
	)

	switch {
	case fileSize < lowThreshold:
		return minBlockSize
	case fileSize >= highThreshold:
		return maxBlockSize
	default:
		span := highThreshold - lowThreshold
		frac := float64(fileSize-lowThreshold) / float64(span)
		size := minBlockSize + int(frac*float64(maxBlockSize-minBlockSize))
		return size
	}
}

// Block is one chunk of a transfer/1 byte-block transfer, checksummed
// independently so a corrupted block can be re-requested without resending
// the whole file.
type Block struct {
	Offset   int64
	Data     []byte
	Checksum uint64
}

// NewBlock builds a Block from data at offset, computing its checksum via
// xxhash — the same library internal/content/fingerprint.go uses for CAS
// IDs, reused here because a fast, non-cryptographic checksum is all a
// corrupted-block retry needs.
func NewBlock(offset int64, data []byte) Block {
	return Block{Offset: offset, Data: data, Checksum: xxhash.Checksum64(data)}
}

// Verify reports whether b's data still matches its recorded checksum.
func (b Block) Verify() bool {
	return xxhash.Checksum64(b.Data) == b.Checksum
}

// SplitBlocks partitions data into blocks sized by BlockSize(len(data)).
func SplitBlocks(data []byte) []Block {
	size := BlockSize(int64(len(data)))
	blocks := make([]Block, 0, (len(data)+size-1)/size)
	for offset := 0; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, NewBlock(int64(offset), data[offset:end]))
	}
	return blocks
}
