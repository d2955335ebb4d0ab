package core

import "github.com/dkeye/Together/internal/domain"

// MemberSession binds an authenticated domain.User and its transport
// endpoint. This is what a room stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}
