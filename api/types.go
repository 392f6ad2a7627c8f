package api

import (
	"context"

	"taskticker-api/domain"
	"taskticker-api/identity"
)

// Repository abstracts the task core for handlers.
type Repository interface {
	Create(ctx context.Context, sess *identity.Session, in domain.TaskInput) (string, error)
	List(ctx context.Context, sess *identity.Session) ([]domain.Task, error)
	Update(ctx context.Context, sess *identity.Session, id string, patch domain.TaskPatch) error
	ToggleCompletion(ctx context.Context, sess *identity.Session, id string, completed bool) error
	Delete(ctx context.Context, sess *identity.Session, id string) error
}

// Accounts is the slice of the identity provider client the auth handlers
// use.
type Accounts interface {
	Register(ctx context.Context, email, password, confirmPassword string) (domain.Identity, string, error)
	Login(ctx context.Context, email, password string) (domain.Identity, string, error)
	Logout(ctx context.Context, token string) error
	Lookup(ctx context.Context, token string) (domain.Identity, error)
}

// Authenticator is implemented by types able to resolve identities from
// Authorization headers.
type Authenticator interface {
	IdentityFromAuthHeader(string) (domain.Identity, error)
}
