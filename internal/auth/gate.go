package auth

import (
	"context"

	"challenge-server/internal/apperr"
)

const (
	MsgLoginRequired = "You are not authorized to perform this action. Please login and try again."
	MsgNotPermitted  = "You are not authorized to perform this action."
)

// Gate decides whether the caller behind ctx may run an operation. The
// Require methods return the caller's user id on success.
type Gate interface {
	RequireAuthenticated(ctx context.Context) (int64, error)
	RequireAdmin(ctx context.Context) (int64, error)
	IsAdmin(ctx context.Context) (bool, error)
}

type AdminLookup interface {
	IsUserAdmin(ctx context.Context, userID int64) (bool, error)
}

// SessionGate trusts the token for identity but asks the datastore for the
// admin flag, so a revoked admin loses access before the token expires.
type SessionGate struct {
	users AdminLookup
}

func NewSessionGate(users AdminLookup) *SessionGate {
	return &SessionGate{users: users}
}

func (g *SessionGate) RequireAuthenticated(ctx context.Context) (int64, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		return 0, apperr.New(apperr.CodeUnauthorized, "auth", MsgLoginRequired)
	}
	return claims.UserID, nil
}

// IsAdmin is false for anonymous callers.
func (g *SessionGate) IsAdmin(ctx context.Context) (bool, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		return false, nil
	}

	isAdmin, err := g.users.IsUserAdmin(ctx, claims.UserID)
	if err != nil {
		return false, apperr.Wrap(err, apperr.CodeInternal, "auth", "could not verify permissions")
	}
	return isAdmin, nil
}

func (g *SessionGate) RequireAdmin(ctx context.Context) (int64, error) {
	userID, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return 0, err
	}

	isAdmin, err := g.IsAdmin(ctx)
	if err != nil {
		return 0, err
	}
	if !isAdmin {
		return 0, apperr.New(apperr.CodeForbidden, "auth", MsgNotPermitted)
	}
	return userID, nil
}
