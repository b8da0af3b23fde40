package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/indexer"
	"github.com/spacedriveapp/sdcore/internal/jobs"
)

func TestDisabledRegistryRecordsNothingAndHasNoHandler(t *testing.T) {
	r := New(false)
	r.ObserveTask(jobs.PriorityNormal, time.Millisecond, true)
	r.ObserveApplied("device")
	r.ObserveQuarantined()
	assert.Nil(t, r.Handler())
}

func TestEnabledRegistrySubscriberTranslatesEvents(t *testing.T) {
	r := New(true)
	bus := eventbus.New(16)
	r.Subscribe(bus, "metrics")

	bus.Publish(eventbus.Event{Kind: eventbus.KindLibraryOpened, Payload: "lib-1"})
	bus.Publish(eventbus.Event{Kind: eventbus.KindFilesIndexed, Payload: indexer.FilesIndexedPayload{
		LocationID: "loc-1", Count: 3, Duration: time.Millisecond,
	}})
	bus.Publish(eventbus.Event{Kind: eventbus.KindJobCompleted, Payload: jobs.JobLifecyclePayload{JobID: "job-1"}})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(r.filesIndexed) == 3
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.librariesOpen))

	rec := httptest.NewRecorder()
	handler := r.Handler()
	require.NotNil(t, handler)
	req := httptest.NewRequest("GET", "/metrics", nil)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
}
