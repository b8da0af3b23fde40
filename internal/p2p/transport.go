package p2p

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Conn is one multiplexed connection to a peer: a single coder/websocket
// connection carrying every ALPN protocol's frames (spec §4.7), demuxed by
// tag into per-protocol channels so pairing/1, sync/1, rpc/1, and
// transfer/1 traffic share one socket without blocking each other.
type Conn struct {
	peer RemoteIdentity
	raw  net.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	inboxes   map[Protocol]chan []byte
	lastUsed  time.Time
	err       error
	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(ctx context.Context, peer RemoteIdentity, ws *websocket.Conn) *Conn {
	raw := websocket.NetConn(ctx, ws, websocket.MessageBinary)
	return newConnFromRaw(peer, raw)
}

// newConnFromRaw builds a Conn directly over any net.Conn, bypassing the
// websocket handshake — used by OpenStream in production (raw wraps a
// live coder/websocket connection) and directly by tests (raw is one end
// of a net.Pipe).
func newConnFromRaw(peer RemoteIdentity, raw net.Conn) *Conn {
	c := &Conn{
		peer:     peer,
		raw:      raw,
		inboxes:  make(map[Protocol]chan []byte),
		lastUsed: time.Now(),
		closed:   make(chan struct{}),
	}
	go c.demux()
	return c
}

func (c *Conn) inbox(p Protocol) chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.inboxes[p]
	if !ok {
		ch = make(chan []byte, 32)
		c.inboxes[p] = ch
	}
	return ch
}

func (c *Conn) demux() {
	r := bufio.NewReader(c.raw)
	for {
		f, err := readTaggedFrame(r)
		if err != nil {
			c.fail(err)
			return
		}
		ch := c.inbox(f.Protocol)
		select {
		case ch <- f.Payload:
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.Close()
}

func (c *Conn) touch() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

func (c *Conn) idleSince() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastUsed)
}

func (c *Conn) alive() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

// Close terminates the underlying socket and wakes any blocked Receive.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Send writes one frame tagged with protocol p.
func (c *Conn) Send(p Protocol, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.touch()
	return writeTaggedFrame(c.raw, taggedFrame{Protocol: p, Payload: payload})
}

// Receive blocks for the next frame tagged protocol p.
func (c *Conn) Receive(ctx context.Context, p Protocol) ([]byte, error) {
	ch := c.inbox(p)
	select {
	case payload := <-ch:
		c.touch()
		return payload, nil
	case <-c.closed:
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, errs.Canceled("p2p: connection closed")
	case <-ctx.Done():
		return nil, errs.Canceled("p2p: " + ctx.Err().Error())
	}
}

// Dialer opens a fresh transport-level connection to peer. Discovery
// (mDNS, DHT, relay) is out of the core's scope per spec §4.7; whatever
// resolves peer to an address lives behind this function.
type Dialer func(ctx context.Context, peer RemoteIdentity) (*websocket.Conn, error)

// Manager is the cached-connection broker spec §4.7 describes: "a single
// cached connection per peer is reused across protocols," established on
// first use, evicted on a `ConnectionReset`-equivalent failure or after an
// idle window.
type Manager struct {
	mu          sync.Mutex
	conns       map[RemoteIdentity]*Conn
	idleTimeout time.Duration
	dial        Dialer
}

func NewManager(idleTimeout time.Duration, dial Dialer) *Manager {
	return &Manager{conns: make(map[RemoteIdentity]*Conn), idleTimeout: idleTimeout, dial: dial}
}

// OpenStream implements spec §4.7's NetworkTransport.open_stream(peer, alpn)
// contract: returns the peer's cached connection, dialing fresh only if
// there is none yet or the cached one has failed.
func (m *Manager) OpenStream(ctx context.Context, peer RemoteIdentity, proto Protocol) (*Conn, error) {
	m.mu.Lock()
	conn, ok := m.conns[peer]
	m.mu.Unlock()
	if ok && conn.alive() {
		return conn, nil
	}

	ws, err := m.dial(ctx, peer)
	if err != nil {
		return nil, errs.TransientIO(err, "p2p: dialing peer "+string(peer))
	}
	conn = newConn(ctx, peer, ws)

	m.mu.Lock()
	m.conns[peer] = conn
	m.mu.Unlock()
	return conn, nil
}

// Evict drops the cached connection for peer, called when a stream
// observes a reset so the next OpenStream dials fresh instead of reusing
// a dead socket.
func (m *Manager) Evict(peer RemoteIdentity) {
	m.mu.Lock()
	conn, ok := m.conns[peer]
	delete(m.conns, peer)
	m.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// SweepIdle closes and evicts every cached connection that has been idle
// longer than idleTimeout, for a caller to run on a ticker.
func (m *Manager) SweepIdle() {
	m.mu.Lock()
	var stale []RemoteIdentity
	for peer, conn := range m.conns {
		if conn.idleSince() > m.idleTimeout {
			stale = append(stale, peer)
		}
	}
	m.mu.Unlock()

	for _, peer := range stale {
		m.Evict(peer)
	}
}
