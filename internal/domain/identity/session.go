package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// Session is the authenticated caller of an operation. It is passed explicitly
// through context instead of living in process-wide state.
type Session struct {
	UserID       uuid.UUID
	Username     string
	Role         Role
	LandlordCode string
}

// IsLandlord reports whether the caller is a landlord
func (s Session) IsLandlord() bool {
	return s.Role == RoleLandlord
}

type sessionKey struct{}

// WithSession attaches s to ctx
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session attached to ctx
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// RequireLandlord returns the session if the caller is a landlord
func RequireLandlord(ctx context.Context) (Session, error) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return Session{}, shared.ErrUnauthorized
	}
	if !s.IsLandlord() {
		return Session{}, shared.NewDomainError("FORBIDDEN", "Only landlords can perform this action")
	}
	return s, nil
}
