// Package session carries the acting identity and its tenant profile
// through request contexts. The auth middleware resolves the identity from
// the session cookie; repositories read it back to stamp and scope writes.
package session

import (
	"context"

	"github.com/mascarene/tourdesk/internal/models"
)

// Session is the authenticated identity acting on a request.
type Session struct {
	UserID      string
	DisplayName string
}

// Profile is the tenant profile the identity belongs to, denormalized from
// the user's profile document.
type Profile struct {
	CompanyID   string
	CompanyName string
	CompanyType models.CompanyType
}

type ctxKey int

const sessionKey ctxKey = 0

// NewContext returns ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the session carried by ctx, or nil when the request
// is unauthenticated.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}
