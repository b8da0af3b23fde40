package library

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spacedriveapp/sdcore/internal/jobs"
	"github.com/spacedriveapp/sdcore/internal/platform"
)

// startMaintenance runs lib's two recurring low-priority housekeeping Jobs
// — the ContentIdentity GC sweep and the volume speed test — on their own
// tickers for as long as lib.jobCtx is alive, the supplemented features
// SPEC_FULL.md's FEATURES SUPPLEMENTED section names for
// internal/catalog/gc.go and VolumeSpeedTest. Each tick submits a fresh Job
// rather than looping inline, so a slow sweep is still subject to the same
// priority scheduling and Interrupter-driven pause/cancel as any other job.
func startMaintenance(lib *Library, gcInterval, gcGrace, speedTestInterval time.Duration) {
	go runTicker(lib.jobCtx, gcInterval, func() { submitGC(lib, gcGrace) })
	go runTicker(lib.jobCtx, speedTestInterval, func() { submitSpeedTest(lib) })
}

func runTicker(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// submitGC dispatches one low-priority Job running
// SidecarRepo.GCUnreferencedContent, matching spec §3's "a GC sweep
// removes unreferenced ones after a grace period" lifecycle rule.
func submitGC(lib *Library, grace time.Duration) {
	job := jobs.New(uuid.NewString(), lib.ID, "content.gc", jobs.PriorityBackground, nil)
	task := jobs.TaskFunc(func(ctx context.Context, job *jobs.Job) error {
		removed, err := lib.Sidecars.GCUnreferencedContent(ctx, grace)
		if err != nil {
			return err
		}
		lib.log.Info("library: gc sweep complete", "library_id", lib.ID, "removed", removed)
		return nil
	})

	if err := lib.JobRunner.Submit(lib.jobCtx, job, []jobs.Task{task}); err != nil {
		lib.log.Warn("library: gc job submission failed", "library_id", lib.ID, "error", err)
	}
}

// submitSpeedTest dispatches one low-priority Job per known volume,
// benchmarking sequential read/write throughput and recording it for the
// job system's resource-affinity soft caps (spec §4.3).
func submitSpeedTest(lib *Library) {
	volumes, err := lib.Volumes.List(lib.jobCtx, lib.ID)
	if err != nil {
		lib.log.Warn("library: listing volumes for speed test failed", "library_id", lib.ID, "error", err)
		return
	}

	for _, v := range volumes {
		v := v
		if v.MountPoint == "" {
			continue
		}

		job := jobs.New(uuid.NewString(), lib.ID, "volume.speed_test", jobs.PriorityBackground, nil)
		task := jobs.VolumeTask{
			Volume: v.ID,
			Kind:   jobs.AccessSequential,
			Fn: func(ctx context.Context, job *jobs.Job) error {
				writeBPS, readBPS, err := platform.MeasureSpeed(ctx, v.MountPoint)
				if err != nil {
					return err
				}
				if err := lib.Volumes.RecordSpeedTest(ctx, v.ID, readBPS, writeBPS, time.Now()); err != nil {
					return err
				}
				lib.log.Info("library: volume speed test complete",
					"library_id", lib.ID, "volume_id", v.ID,
					"read_bps", readBPS, "write_bps", writeBPS)
				return nil
			},
		}

		if err := lib.JobRunner.Submit(lib.jobCtx, job, []jobs.Task{task}); err != nil {
			lib.log.Warn("library: speed test job submission failed", "library_id", lib.ID, "volume_id", v.ID, "error", err)
		}
	}
}
