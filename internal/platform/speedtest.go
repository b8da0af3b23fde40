package platform

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// speedTestSampleBytes is how much data MeasureSpeed writes and reads back
// per sample: big enough to amortize filesystem-call overhead, small enough
// to run as a background maintenance job without hammering the volume.
const speedTestSampleBytes = 32 * 1024 * 1024

// MeasureSpeed benchmarks mountPoint's sequential write and read throughput
// by writing a scratch file and timing the write and a subsequent cold
// read, matching spec §4.3's "resource affinity ... unless speed tests
// indicate otherwise." The scratch file is removed before returning.
func MeasureSpeed(ctx context.Context, mountPoint string) (writeBPS, readBPS int64, err error) {
	scratch := filepath.Join(mountPoint, ".sd-speedtest-"+uuid.NewString())
	defer os.Remove(scratch)

	buf := make([]byte, speedTestSampleBytes)

	f, err := os.OpenFile(scratch, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return 0, 0, errs.TransientIO(err, "platform: opening speed test scratch file")
	}

	writeStart := time.Now()
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return 0, 0, errs.TransientIO(err, "platform: writing speed test sample")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, 0, errs.TransientIO(err, "platform: syncing speed test sample")
	}
	writeElapsed := time.Since(writeStart)
	f.Close()

	if ctx.Err() != nil {
		return 0, 0, errs.Canceled("platform: speed test canceled")
	}

	readStart := time.Now()
	rf, err := os.Open(scratch)
	if err != nil {
		return 0, 0, errs.TransientIO(err, "platform: reopening speed test scratch file")
	}
	defer rf.Close()

	readBuf := make([]byte, speedTestSampleBytes)
	if _, err := readFull(rf, readBuf); err != nil {
		return 0, 0, errs.TransientIO(err, "platform: reading speed test sample")
	}
	readElapsed := time.Since(readStart)

	writeBPS = bytesPerSecond(speedTestSampleBytes, writeElapsed)
	readBPS = bytesPerSecond(speedTestSampleBytes, readElapsed)
	return writeBPS, readBPS, nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func bytesPerSecond(n int64, d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(float64(n) / d.Seconds())
}
