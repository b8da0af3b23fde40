package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToMatchingSubscribers(t *testing.T) {
	b := New(4)
	all := b.Subscribe("all")
	jobsOnly := b.Subscribe("jobs-only", KindJobStarted, KindJobCompleted)

	b.Publish(Event{Kind: KindJobStarted, Payload: "job-1"})
	b.Publish(Event{Kind: KindLocationAdded, Payload: "loc-1"})

	require.Len(t, all, 2)
	require.Len(t, jobsOnly, 1)

	ev := <-jobsOnly
	assert.Equal(t, KindJobStarted, ev.Kind)
	assert.Equal(t, "job-1", ev.Payload)
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New(2)
	ch := b.Subscribe("slow")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Kind: KindRefresh, Payload: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	// Only the 2 most recent events survive; oldest ones were dropped.
	require.Len(t, ch, 2)
	first := <-ch
	second := <-ch
	assert.Equal(t, 8, first.Payload)
	assert.Equal(t, 9, second.Payload)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(1)
	ch := b.Subscribe("consumer")
	b.Unsubscribe("consumer")

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after Unsubscribe must not panic or deliver anywhere.
	b.Publish(Event{Kind: KindRefresh})
}

func TestSubscribeReplacesPriorSubscription(t *testing.T) {
	b := New(1)
	first := b.Subscribe("dup")
	second := b.Subscribe("dup")

	b.Publish(Event{Kind: KindRefresh})

	select {
	case <-first:
		t.Fatal("stale subscription channel should not receive new events")
	default:
	}
	require.Len(t, second, 1)
}
