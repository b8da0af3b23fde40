package main

import (
	"net"
	"time"

	"github.com/spacedriveapp/sdcore/internal/errs"
	"github.com/spacedriveapp/sdcore/internal/wire"
)

// dialTimeout bounds how long `sd` waits for sdcored to accept a
// connection before reporting it unreachable (exit code 3).
const dialTimeout = 2 * time.Second

// client holds one RPC connection to sdcored, opened for the lifetime of
// a single `sd` invocation. Unlike a long-lived daemon client, there is no
// connection pooling: one command, one connection, mirroring the
// teacher's per-command graph.Client construction in clientAndDrive.
type client struct {
	conn net.Conn
}

// dial opens a connection to sdcored's RPC socket at path.
func dial(path string) (*client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, unreachableError("daemon unreachable at " + path + ": " + err.Error())
	}
	return &client{conn: conn}, nil
}

func (c *client) Close() error { return c.conn.Close() }

// call sends one action/query request and returns its decoded response,
// mapping a failed wire.Response into a *cliError with the exit code
// spec.md §6 assigns to each errs.Kind.
func (c *client) call(kind wire.RequestKind, name string, payload any) (wire.RawMessage, error) {
	body, err := wire.Marshal(payload)
	if err != nil {
		return nil, internalError("encoding request: " + err.Error())
	}

	req := wire.Request{Kind: kind, Name: name, Payload: body}
	if err := wire.WriteValue(c.conn, req); err != nil {
		return nil, unreachableError("sending request: " + err.Error())
	}

	var resp wire.Response
	if err := wire.ReadValue(c.conn, &resp); err != nil {
		return nil, unreachableError("reading response: " + err.Error())
	}

	if !resp.OK {
		return nil, cliErrorFromWire(resp.Error)
	}
	return resp.Output, nil
}

// openLibrary sends "library.open" on this connection so a subsequent
// library-scoped call succeeds; sdcored's per-connection connState is
// what remembers this across the two calls.
func (c *client) openLibrary(id string) error {
	_, err := c.call(wire.RequestAction, "library.open", struct{ ID string }{ID: id})
	return err
}

// callLibraryScoped opens flagLibrary (if not already the empty string)
// before dispatching a library-scoped request, since every `sd`
// invocation is a fresh connection with no memory of a prior one.
func (c *client) callLibraryScoped(kind wire.RequestKind, name string, payload any) (wire.RawMessage, error) {
	if flagLibrary == "" {
		return nil, userError("--library is required for " + name)
	}
	if err := c.openLibrary(flagLibrary); err != nil {
		return nil, err
	}
	return c.call(kind, name, payload)
}

func cliErrorFromWire(e *wire.ErrorBody) error {
	if e == nil {
		return internalError("unknown daemon error")
	}
	switch errs.Kind(e.Kind) {
	case errs.KindValidation, errs.KindNotFound, errs.KindConflict, errs.KindPermission:
		msg := e.Message
		if e.Field != "" {
			msg = e.Field + ": " + msg
		}
		return userError(msg)
	default:
		return internalError(e.Message)
	}
}
