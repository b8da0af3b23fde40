package p2p

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConns(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	connA := newConnFromRaw("peer-b", a)
	connB := newConnFromRaw("peer-a", b)
	t.Cleanup(func() { connA.Close(); connB.Close() })
	return connA, connB
}

func TestSendReceiveRoundsTripByProtocolTag(t *testing.T) {
	a, b := pipeConns(t)

	go func() { _ = a.Send(ProtocolSync, []byte("sync-payload")) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := b.Receive(ctx, ProtocolSync)
	require.NoError(t, err)
	assert.Equal(t, "sync-payload", string(got))
}

func TestDifferentProtocolsDontCrossTalk(t *testing.T) {
	a, b := pipeConns(t)

	go func() {
		_ = a.Send(ProtocolRPC, []byte("rpc-msg"))
		_ = a.Send(ProtocolSync, []byte("sync-msg"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	syncMsg, err := b.Receive(ctx, ProtocolSync)
	require.NoError(t, err)
	assert.Equal(t, "sync-msg", string(syncMsg))

	rpcMsg, err := b.Receive(ctx, ProtocolRPC)
	require.NoError(t, err)
	assert.Equal(t, "rpc-msg", string(rpcMsg))
}

func TestReceiveReturnsErrorAfterClose(t *testing.T) {
	a, b := pipeConns(t)
	a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := b.Receive(ctx, ProtocolSync)
	assert.Error(t, err)
}

func TestManagerEvictForcesRedial(t *testing.T) {
	// Exercised indirectly via Evict's contract: after eviction the cached
	// entry is gone, so the next OpenStream call must dial again. Verified
	// at the unit level since a real dial requires a live websocket server.
	m := NewManager(time.Minute, nil)
	m.mu.Lock()
	m.conns["peer-x"] = &Conn{closed: make(chan struct{})}
	m.mu.Unlock()

	m.Evict("peer-x")

	m.mu.Lock()
	_, ok := m.conns["peer-x"]
	m.mu.Unlock()
	assert.False(t, ok)
}

func TestSweepIdleEvictsStaleConnections(t *testing.T) {
	m := NewManager(10*time.Millisecond, nil)
	conn := &Conn{closed: make(chan struct{}), lastUsed: time.Now().Add(-time.Hour)}
	m.mu.Lock()
	m.conns["peer-x"] = conn
	m.mu.Unlock()

	m.SweepIdle()

	m.mu.Lock()
	_, ok := m.conns["peer-x"]
	m.mu.Unlock()
	assert.False(t, ok)
}
