package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/config"
	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/library"
	"github.com/spacedriveapp/sdcore/internal/metrics"
	"github.com/spacedriveapp/sdcore/internal/telemetry"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// socketPermissions restricts the RPC socket to the owning user: the
// daemon's trust boundary for local IPC is filesystem permissions, not a
// signed session token (those are reserved for rpc/1 over P2P, per
// SPEC_FULL.md's domain-stack note on golang-jwt/jwt/v5 being for
// "remote/extension session tokens").
const socketPermissions = 0o600

// runServe is the root command's RunE: the entire sdcored process
// lifecycle, generalizing the teacher's "load config, build a graph
// client, run one engine method" RunE handlers into "load config, build a
// library.Manager, serve the RPC socket until a signal arrives."
func runServe(cmd *cobra.Command, _ []string) error {
	cfg := resolvedCfg
	logger := buildLogger(cfg)

	pidPath := config.PIDFilePath(cfg)
	cleanupPID, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}
	defer cleanupPID()

	shutdown, err := startTelemetry(cfg, logger)
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer shutdown(context.Background())

	registry := metrics.New(cfg.Metrics.Enabled)
	stopMetricsServer := serveMetricsHTTP(cfg, registry, logger)
	defer stopMetricsServer(context.Background())

	dataDir := config.DataDir(cfg)
	mgr := library.NewManager(dataDir, logger, library.Options{
		JobWorkers:        cfg.Jobs.Workers,
		EventBusCapacity:  cfg.Sync.EventBusCapacity,
		ShutdownGrace:     config.Duration(cfg.Jobs.ShutdownGrace, 5*time.Second),
		GCInterval:        config.Duration(cfg.Maintenance.GCInterval, time.Hour),
		GCGracePeriod:     config.Duration(cfg.Maintenance.GCGracePeriod, 24*time.Hour),
		SpeedTestInterval: config.Duration(cfg.Maintenance.SpeedTestInterval, 24*time.Hour),
		Metrics:           registry,
	})

	core := eventbus.New(cfg.Sync.EventBusCapacity)
	core.Publish(eventbus.Event{Kind: eventbus.KindCoreStarted, Payload: version})

	socketPath := config.SocketPath(cfg)
	ln, err := listenUnix(socketPath)
	if err != nil {
		return fmt.Errorf("listening on RPC socket %s: %w", socketPath, err)
	}
	defer ln.Close()
	defer os.Remove(socketPath)

	logger.Info("sdcored: serving",
		slog.String("socket", socketPath),
		slog.String("data_dir", dataDir),
		slog.String("version", version),
	)

	ctx := shutdownContext(backgroundContext(), logger)
	watchReload(ctx, logger)

	srv := &server{mgr: mgr, core: core, log: logger}
	return srv.acceptLoop(ctx, ln)
}

// startTelemetry wires internal/telemetry's tracer and, if enabled, its
// Pyroscope profiler from daemon config, returning a combined shutdown
// func the RunE defers.
func startTelemetry(cfg *config.Config, logger *slog.Logger) (func(context.Context) error, error) {
	traceShutdown, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		return nil, err
	}

	profShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.ProfilingOn,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		ProfileTypes:   cfg.Telemetry.ProfileTypes,
	})
	if err != nil {
		traceShutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		profShutdown()
		return traceShutdown(ctx)
	}, nil
}

// serveMetricsHTTP starts the Prometheus exposition endpoint when metrics
// are enabled, returning a no-op shutdown otherwise.
func serveMetricsHTTP(cfg *config.Config, registry *metrics.Registry, logger *slog.Logger) func(context.Context) error {
	if !cfg.Metrics.Enabled {
		return func(context.Context) error { return nil }
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	httpSrv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}

	go func() {
		logger.Info("metrics: serving", slog.String("addr", cfg.Metrics.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics: server stopped", "error", err)
		}
	}()

	return httpSrv.Shutdown
}

// listenUnix binds a Unix domain socket at path, removing a stale socket
// file left behind by an unclean shutdown (safe here: writePIDFile's flock
// already guarantees only one daemon instance reaches this point) and
// restricting the socket to the owning user.
func listenUnix(path string) (net.Listener, error) {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, socketPermissions); err != nil {
		ln.Close()
		return nil, err
	}
	return ln, nil
}

// server holds the daemon's long-lived state the accept loop dispatches
// requests against.
type server struct {
	mgr  *library.Manager
	core *eventbus.Bus
	log  *slog.Logger
}

// acceptLoop accepts connections until ctx is canceled, handling each on
// its own goroutine — the daemon's counterpart to the teacher's single
// blocking sync.Engine.RunOnce call, generalized to a long-lived server.
func (s *server) acceptLoop(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				s.mgr.CloseAll()
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// connState tracks the one piece of mutable session state a local RPC
// connection carries between requests: which library (if any) it has
// opened. There is no signed session token for local IPC — the socket
// file's permissions are the trust boundary — so this is plain in-memory
// state scoped to the connection, not a verified claim.
type connState struct {
	deviceID  string
	libraryID string
}

func (s *server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	state := &connState{deviceID: "local-" + action.NewCorrelationID()}

	for {
		req, err := readRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("sdcored: connection read error", "error", err)
			}
			return
		}

		if req.Name == "events.subscribe" {
			s.streamEvents(ctx, conn, state)
			return
		}

		resp := s.dispatch(ctx, state, req)

		if err := wire.WriteValue(conn, resp); err != nil {
			s.log.Debug("sdcored: connection write error", "error", err)
			return
		}
	}
}

func readRequest(conn net.Conn) (wire.Request, error) {
	var req wire.Request
	if err := wire.ReadValue(conn, &req); err != nil {
		return wire.Request{}, err
	}
	return req, nil
}

// dispatch routes req to the CoreActions registry (library.* handlers, no
// library required) or the currently-open library's Registry, by name
// prefix — "library." is reserved for the handlers that manage a library's
// own lifecycle, everything else requires state.libraryID to already be
// set via a prior "library.open" call on this connection.
func (s *server) dispatch(ctx context.Context, state *connState, req wire.Request) wire.Response {
	sess := action.SessionContext{
		Session:       action.Session{DeviceID: state.deviceID, LibraryID: state.libraryID},
		CorrelationID: action.NewCorrelationID(),
	}

	if strings.HasPrefix(req.Name, "library.") {
		resp := s.mgr.CoreActions.Dispatch(ctx, sess, req)
		s.trackLibraryLifecycle(req, resp, state)
		return resp
	}

	if state.libraryID == "" {
		return errorResponse(errs.Validation("session", "sdcored: no library open for this connection"))
	}

	lib, ok := s.mgr.Get(state.libraryID)
	if !ok {
		return errorResponse(errs.NotFound("sdcored: library is not open"))
	}

	return lib.Registry.Dispatch(ctx, sess, req)
}

// trackLibraryLifecycle updates state.libraryID after a successful
// library.open/library.close, since the daemon (not a signed token) is
// the only place this connection's notion of "current library" lives.
func (s *server) trackLibraryLifecycle(req wire.Request, resp wire.Response, state *connState) {
	if !resp.OK {
		return
	}

	switch req.Name {
	case "library.open":
		var out struct{ ID string }
		if err := wire.Unmarshal(resp.Output, &out); err == nil {
			state.libraryID = out.ID
		}
	case "library.close":
		var in struct{ ID string }
		if err := wire.Unmarshal(req.Payload, &in); err == nil && in.ID == state.libraryID {
			state.libraryID = ""
		}
	}
}

// streamEvents upgrades the connection into a one-way event feed: the
// library's bus if one is open on this connection, otherwise the
// process-wide core bus (CoreStarted, and future core-level kinds).
// Ends when the client disconnects or ctx is canceled.
func (s *server) streamEvents(ctx context.Context, conn net.Conn, state *connState) {
	consumerID := "conn-" + state.deviceID
	bus := s.core
	if state.libraryID != "" {
		if lib, ok := s.mgr.Get(state.libraryID); ok {
			bus = lib.Events
		}
	}

	ch := bus.Subscribe(consumerID)
	defer bus.Unsubscribe(consumerID)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := wire.WriteValue(conn, eventEnvelope{Kind: string(ev.Kind), Payload: ev.Payload}); err != nil {
				return
			}
		}
	}
}

// eventEnvelope is the wire shape of one event.subscribe frame.
type eventEnvelope struct {
	Kind    string `msgpack:"kind"`
	Payload any    `msgpack:"payload"`
}

func errorResponse(err error) wire.Response {
	var e *errs.Error
	if ee, ok := err.(*errs.Error); ok {
		e = ee
	} else {
		e = &errs.Error{Kind: errs.KindInternal, Message: err.Error()}
	}
	return wire.Response{OK: false, Error: &wire.ErrorBody{Kind: string(e.Kind), Message: e.Message, Field: e.Field}}
}
