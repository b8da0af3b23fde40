package library

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/catalog"
	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/eventbus"
	"github.com/spacedriveapp/sdcore/internal/indexer"
	"github.com/spacedriveapp/sdcore/internal/jobs"
	"github.com/spacedriveapp/sdcore/internal/metrics"
	"github.com/spacedriveapp/sdcore/internal/p2p"
	"github.com/spacedriveapp/sdcore/internal/syncengine"
	"github.com/spacedriveapp/sdcore/internal/telemetry"
)

// metricsConsumerID is the eventbus subscriber id internal/metrics uses on
// every Library's own Bus; scoped per-Bus instance, so every library reuses
// the same literal without colliding.
const metricsConsumerID = "metrics"

// Options configures the resources Manager hands each Library it opens.
// Zero-valued fields fall back to spec-named defaults, mirroring the
// teacher's Config-struct-with-defaults pattern (internal/config).
type Options struct {
	JobWorkers       int
	EventBusCapacity int
	ShutdownGrace    time.Duration

	// GCInterval/GCGracePeriod and SpeedTestInterval drive each Library's
	// background maintenance goroutine (maintenance.go): how often the
	// ContentIdentity GC sweep and volume speed test recurring Jobs fire,
	// and how long an unreferenced ContentIdentity must sit before GC
	// removes it.
	GCInterval        time.Duration
	GCGracePeriod     time.Duration
	SpeedTestInterval time.Duration

	// Metrics is shared by every Library this Manager opens; a nil value
	// gets a disabled Registry (every recording call becomes a no-op) so
	// daemon config can turn metrics off without changing any call site.
	Metrics *metrics.Registry
}

func (o Options) withDefaults() Options {
	if o.JobWorkers <= 0 {
		o.JobWorkers = 4
	}
	if o.EventBusCapacity <= 0 {
		o.EventBusCapacity = 1024
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 5 * time.Second
	}
	if o.GCInterval <= 0 {
		o.GCInterval = time.Hour
	}
	if o.GCGracePeriod <= 0 {
		o.GCGracePeriod = 24 * time.Hour
	}
	if o.SpeedTestInterval <= 0 {
		o.SpeedTestInterval = 24 * time.Hour
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New(false)
	}
	return o
}

// Manager owns the root data directory and every currently-open Library, the
// process-wide counterpart to the teacher's single profile-keyed engine map
// (internal/config's multi-profile support) generalized to full Library
// lifecycles instead of OneDrive account profiles.
type Manager struct {
	dataDir string
	log     *slog.Logger
	opts    Options

	mu   sync.Mutex
	open map[string]*Library

	// CoreActions is the registry for library.* handlers (spec §4.5's
	// CoreAction/CoreQuery kinds) — the part of the action surface that
	// doesn't require a library to already be open.
	CoreActions *action.Registry
}

// NewManager creates a Manager rooted at dataDir (resolved by the caller via
// config.DataDir), registering the library.* CoreAction/CoreQuery handlers.
func NewManager(dataDir string, log *slog.Logger, opts Options) *Manager {
	m := &Manager{
		dataDir:     dataDir,
		log:         log,
		opts:        opts.withDefaults(),
		open:        make(map[string]*Library),
		CoreActions: action.NewRegistry(),
	}
	registerCoreHandlers(m.CoreActions, m)
	pre, post := m.opts.Metrics.ActionHooks()
	m.CoreActions.Use(pre)
	m.CoreActions.UsePost(post)
	tracePre, tracePost := telemetry.ActionHooks()
	m.CoreActions.Use(tracePre)
	m.CoreActions.UsePost(tracePost)
	return m
}

// Create provisions a new library directory (library.db, config.json,
// sidecars/, jobs/ per spec §6), opens it, and returns the running Library.
func (m *Manager) Create(ctx context.Context, name, description string) (*Library, error) {
	if name == "" {
		return nil, errs.Validation("name", "library: name is required")
	}

	id := uuid.NewString()
	libDir := dir(m.dataDir, id)

	for _, sub := range []string{libDir, sidecarsDir(libDir), jobsDir(libDir), checkpointDir(libDir)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, errs.TransientIO(err, "library: creating directory "+sub)
		}
	}

	now := time.Now()
	desc := Descriptor{
		ID:            id,
		Name:          name,
		Description:   description,
		SchemaVersion: CurrentSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := saveDescriptor(configPath(libDir), desc); err != nil {
		return nil, err
	}

	return m.openLibrary(ctx, desc, libDir)
}

// Open returns the library identified by id, opening it from disk if it
// isn't already running. Wrapped in a span per SPEC_FULL.md's telemetry
// wiring note: opening a library touches two SQLite handles, a badger
// store, and a job dispatcher, the kind of multi-resource startup worth
// tracing end to end.
func (m *Manager) Open(ctx context.Context, id string) (lib *Library, err error) {
	ctx, span := telemetry.StartSpan(ctx, "library.open", trace.WithAttributes(attribute.String("library_id", id)))
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	m.mu.Lock()
	if lib, ok := m.open[id]; ok {
		m.mu.Unlock()
		return lib, nil
	}
	m.mu.Unlock()

	libDir := dir(m.dataDir, id)
	desc, loadErr := loadDescriptor(configPath(libDir))
	if loadErr != nil {
		err = loadErr
		return nil, err
	}
	return m.openLibrary(ctx, desc, libDir)
}

// Get returns an already-open library without touching disk.
func (m *Manager) Get(id string) (*Library, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib, ok := m.open[id]
	return lib, ok
}

// Close implements spec §3's "closing a library pauses its jobs and flushes
// pending state"; it is a no-op if the library isn't currently open.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	lib, ok := m.open[id]
	delete(m.open, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return lib.Close(m.opts.ShutdownGrace)
}

// CloseAll closes every currently-open library, for the daemon's own
// shutdown path.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := m.Close(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Rename updates a library's display name, both in its config.json and (if
// currently open) its catalog row and in-memory descriptor.
func (m *Manager) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return errs.Validation("name", "library: name is required")
	}

	libDir := dir(m.dataDir, id)
	desc, err := loadDescriptor(configPath(libDir))
	if err != nil {
		return err
	}
	desc.Name = name
	desc.UpdatedAt = time.Now()
	if err := saveDescriptor(configPath(libDir), desc); err != nil {
		return err
	}

	if lib, ok := m.Get(id); ok {
		lib.setDescriptor(desc)
		libRepo := catalog.NewLibraryRepo(lib.Catalog)
		return libRepo.Rename(ctx, id, name)
	}
	return nil
}

// Delete removes a library's entire on-disk directory. Per spec §3's
// ownership rule ("a library cannot close until all its jobs have observed
// a cancellation/pause boundary"), Delete refuses to run against a library
// that is still open — the caller must Close it first.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, ok := m.Get(id); ok {
		return errs.Conflict("library: cannot delete an open library, close it first")
	}
	libDir := dir(m.dataDir, id)
	if err := os.RemoveAll(libDir); err != nil {
		return errs.TransientIO(err, "library: deleting library directory")
	}
	return nil
}

// List enumerates every library's Descriptor by reading config.json files
// under dataDir/libraries, without opening any library.db.
func (m *Manager) List() ([]Descriptor, error) {
	root := dir(m.dataDir, "")
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.TransientIO(err, "library: listing library directories")
	}

	out := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		desc, err := loadDescriptor(configPath(dir(m.dataDir, e.Name())))
		if err != nil {
			m.log.Warn("library: skipping unreadable config.json", "id", e.Name(), "error", err)
			continue
		}
		out = append(out, desc)
	}
	return out, nil
}

// openLibrary wires every service a Library owns: catalog store and
// repositories, the sync engine's second schema over the same library.db
// file, the event bus, job dispatcher and runner, indexer, and a
// library-scoped action registry.
func (m *Manager) openLibrary(ctx context.Context, desc Descriptor, libDir string) (*Library, error) {
	dbPath := catalogPath(libDir)

	catalogStore, err := catalog.Open(ctx, dbPath, m.log)
	if err != nil {
		return nil, err
	}
	syncStore, err := syncengine.Open(ctx, dbPath, m.log)
	if err != nil {
		catalogStore.Close()
		return nil, err
	}

	libRepo := catalog.NewLibraryRepo(catalogStore)
	if _, getErr := libRepo.Get(ctx, desc.ID); getErr != nil {
		if err := libRepo.Create(ctx, &catalog.Library{
			ID:          desc.ID,
			Name:        desc.Name,
			Description: desc.Description,
			Path:        libDir,
		}); err != nil {
			syncStore.Close()
			catalogStore.Close()
			return nil, err
		}
	}

	devices := catalog.NewDeviceRepo(catalogStore)
	localDevice, err := ensureLocalDevice(ctx, devices, desc.ID)
	if err != nil {
		syncStore.Close()
		catalogStore.Close()
		return nil, err
	}

	syncLog := syncengine.NewSyncLogRepo(syncStore)
	watermarks := syncengine.NewWatermarkRepo(syncStore)
	backfill := syncengine.NewBackfillRepo(syncStore)
	syncEvents := syncengine.NewEventLogRepo(syncStore)

	modelRegistry := syncengine.NewRegistry()
	registerSyncModels(modelRegistry)
	applier := syncengine.NewApplier(syncStore.DB(), modelRegistry, syncLog, watermarks, syncEvents)
	applier.SetObserver(m.opts.Metrics)
	responder := syncengine.NewResponder(syncLog)
	puller := syncengine.NewPuller(watermarks, applier)
	clock := syncengine.NewClock(localDevice.ID)

	bus := eventbus.New(m.opts.EventBusCapacity)
	m.opts.Metrics.Subscribe(bus, metricsConsumerID)

	checkpoints, err := jobs.OpenStore(checkpointDir(libDir))
	if err != nil {
		syncStore.Close()
		catalogStore.Close()
		return nil, err
	}
	dispatcher := jobs.NewDispatcher(m.opts.JobWorkers, nil, m.log)
	dispatcher.SetObserver(m.opts.Metrics)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	dispatcher.Start(jobCtx)
	runner := jobs.NewRunner(dispatcher, checkpoints, m.log)
	runner.SetEvents(bus)

	entries := catalog.NewEntryRepo(catalogStore)
	prefixes := catalog.NewPrefixRepo(catalogStore)
	locations := catalog.NewLocationRepo(catalogStore)

	ix, err := indexer.New(entries, prefixes, locations, bus, m.log)
	if err != nil {
		dispatcher.Shutdown(m.opts.ShutdownGrace)
		jobCancel()
		checkpoints.Close()
		syncStore.Close()
		catalogStore.Close()
		return nil, err
	}

	lib := &Library{
		ID:          desc.ID,
		dir:         libDir,
		log:         m.log,
		descriptor:  desc,
		Catalog:     catalogStore,
		Entries:     entries,
		Prefixes:    prefixes,
		Locations:   locations,
		Devices:     devices,
		Volumes:     catalog.NewVolumeRepo(catalogStore),
		Sidecars:    catalog.NewSidecarRepo(catalogStore),
		Tags:        catalog.NewTagRepo(catalogStore),
		Labels:      catalog.NewLabelRepo(catalogStore),
		Metadata:    catalog.NewMetadataRepo(catalogStore),
		LocalDevice: localDevice,
		Sync:        syncStore,
		SyncLog:     syncLog,
		Watermarks:  watermarks,
		Backfill:    backfill,
		SyncEvents:  syncEvents,
		SyncModels:  modelRegistry,
		Applier:     applier,
		Responder:   responder,
		Puller:      puller,
		Clock:       clock,
		Events:      bus,
		Checkpoints: checkpoints,
		Jobs:        dispatcher,
		JobRunner:   runner,
		Indexer:     ix,
		Registry:    action.NewRegistry(),
		jobCtx:      jobCtx,
		jobCancel:   jobCancel,
	}
	registerLibraryHandlers(lib.Registry, lib)
	libPre, libPost := m.opts.Metrics.ActionHooks()
	lib.Registry.Use(libPre)
	lib.Registry.UsePost(libPost)
	libTracePre, libTracePost := telemetry.ActionHooks()
	lib.Registry.Use(libTracePre)
	lib.Registry.UsePost(libTracePost)

	m.mu.Lock()
	m.open[desc.ID] = lib
	m.mu.Unlock()

	startMaintenance(lib, m.opts.GCInterval, m.opts.GCGracePeriod, m.opts.SpeedTestInterval)

	bus.Publish(eventbus.Event{Kind: eventbus.KindLibraryOpened, Payload: desc.ID})
	return lib, nil
}

// ensureLocalDevice returns this process's Device row within libraryID,
// minting a fresh Ed25519 identity and persisting it the first time a
// library is opened on this machine.
func ensureLocalDevice(ctx context.Context, devices *catalog.DeviceRepo, libraryID string) (catalog.Device, error) {
	rows, err := devices.List(ctx, libraryID)
	if err != nil {
		return catalog.Device{}, err
	}
	for _, d := range rows {
		if d.IsLocal {
			return d, nil
		}
	}

	identity, err := p2p.NewIdentity()
	if err != nil {
		return catalog.Device{}, errs.Internal(err, "library: generating local device identity")
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "device"
	}

	d := catalog.Device{
		ID:        uuid.NewString(),
		LibraryID: libraryID,
		Name:      hostname,
		PublicKey: []byte(identity.Public),
		IsLocal:   true,
	}
	if err := devices.Create(ctx, &d); err != nil {
		return catalog.Device{}, err
	}
	return d, nil
}
