package library

import (
	"context"

	"github.com/spacedriveapp/sdcore/internal/action"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// registerCoreHandlers wires spec §6's "commands mirror action kinds
// one-to-one" CLI surface for the library.* family onto m's CoreAction/
// CoreQuery registry — the one part of the action surface that has no
// library open yet, since it's what opens one.
func registerCoreHandlers(reg *action.Registry, m *Manager) {
	reg.Register(action.HandlerFunc{
		HandlerName: "library.create",
		HandlerKind: action.KindCoreAction,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			var p struct {
				Name        string `json:"name" validate:"required"`
				Description string `json:"description"`
			}
			if err := action.Decode(payload, &p); err != nil {
				return nil, err
			}
			lib, err := m.Create(ctx, p.Name, p.Description)
			if err != nil {
				return nil, err
			}
			return lib.Descriptor(), nil
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "library.open",
		HandlerKind: action.KindCoreAction,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			var p struct {
				ID string `json:"id" validate:"required"`
			}
			if err := action.Decode(payload, &p); err != nil {
				return nil, err
			}
			lib, err := m.Open(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			return lib.Descriptor(), nil
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "library.close",
		HandlerKind: action.KindCoreAction,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			var p struct {
				ID string `json:"id" validate:"required"`
			}
			if err := action.Decode(payload, &p); err != nil {
				return nil, err
			}
			return nil, m.Close(p.ID)
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "library.rename",
		HandlerKind: action.KindCoreAction,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			var p struct {
				ID   string `json:"id" validate:"required"`
				Name string `json:"name" validate:"required"`
			}
			if err := action.Decode(payload, &p); err != nil {
				return nil, err
			}
			return nil, m.Rename(ctx, p.ID, p.Name)
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "library.delete",
		HandlerKind: action.KindCoreAction,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			var p struct {
				ID string `json:"id" validate:"required"`
			}
			if err := action.Decode(payload, &p); err != nil {
				return nil, err
			}
			return nil, m.Delete(ctx, p.ID)
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "library.list",
		HandlerKind: action.KindCoreQuery,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			return m.List()
		},
	})
}

// registerLibraryHandlers wires the LibraryQuery handlers that read straight
// off an already-open Library's repositories — location.list and
// device.list, the simplest members of spec §6's "location.add, files.copy,
// …" CLI family to ground a first library-scoped registry in.
func registerLibraryHandlers(reg *action.Registry, lib *Library) {
	reg.Register(action.HandlerFunc{
		HandlerName: "location.list",
		HandlerKind: action.KindLibraryQuery,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			return lib.Locations.List(ctx, lib.ID)
		},
	})

	reg.Register(action.HandlerFunc{
		HandlerName: "device.list",
		HandlerKind: action.KindLibraryQuery,
		Fn: func(ctx context.Context, sess action.SessionContext, payload wire.RawMessage) (any, error) {
			return lib.Devices.List(ctx, lib.ID)
		},
	})
}
