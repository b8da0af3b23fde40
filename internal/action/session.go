// Package action implements L5, spec §4.5's Action/Query (CQRS) layer: a
// registry of CoreAction/CoreQuery/LibraryAction/LibraryQuery handlers
// dispatched by name, each request running through validate → pre-hooks →
// execute → post-hooks. This is the generalization of the teacher's
// CLI-command-to-engine-method boundary (cmd/*.go calling into a shared
// Engine) into a registry any transport (daemon RPC, CLI, P2P rpc/1) can
// dispatch against uniformly, the "dynamic dispatch via registry populated
// at init, no god-enum" pattern spec §9 calls out.
package action

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/teris-io/shortid"

	"github.com/spacedriveapp/sdcore/internal/errs"
)

// Kind distinguishes the four action/query interfaces spec §4.5 names. The
// two Library-scoped kinds require a SessionContext with a library open;
// the two Core-scoped kinds don't.
type Kind string

const (
	KindCoreAction    Kind = "core_action"
	KindCoreQuery     Kind = "core_query"
	KindLibraryAction Kind = "library_action"
	KindLibraryQuery  Kind = "library_query"
)

// Session is the authenticated identity behind an rpc/1 or daemon-RPC
// request: which device issued it, and which library (if any) it has open.
// Carried as a signed token rather than re-derived from ambient global
// state on every dispatch (spec §9's "global state passed through explicit
// SessionContext").
type Session struct {
	DeviceID  string `json:"device_id"`
	LibraryID string `json:"library_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
}

// SessionContext pairs a verified Session with a per-request correlation id
// for tracing one request across logs and emitted events, and is threaded
// explicitly through every Handler.Execute call rather than looked up from
// a package-level global.
type SessionContext struct {
	Session       Session
	CorrelationID string
}

// NewCorrelationID mints a short, URL-safe id for one request.
func NewCorrelationID() string {
	id, err := shortid.Generate()
	if err != nil {
		return ""
	}
	return id
}

type sessionClaims struct {
	Session
	jwt.RegisteredClaims
}

// SignSession issues a signed rpc/1 session token for sess, valid for ttl,
// the token a CLI or P2P peer presents on every subsequent request instead
// of re-authenticating per call.
func SignSession(sess Session, secret []byte, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		Session: sess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errs.Internal(err, "action: signing session token")
	}
	return signed, nil
}

// VerifySession parses and validates a token minted by SignSession.
func VerifySession(tokenStr string, secret []byte) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Session{}, errs.Wrap(errs.KindPermission, err, "action: invalid session token")
	}
	return claims.Session, nil
}
