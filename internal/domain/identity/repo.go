package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/memstore"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, role string) ([]*User, error)
}

type userRepoMemory struct {
	users *memstore.Table[uuid.UUID, User]
}

func NewUserRepoMemory() UserRepository {
	return &userRepoMemory{users: memstore.NewTable[uuid.UUID, User]()}
}

func (r *userRepoMemory) Create(_ context.Context, u *User) error {
	email := strings.ToLower(u.Email)
	if _, exists := r.users.Find(func(x User) bool { return strings.ToLower(x.Email) == email }); exists {
		return apperr.Conflict("identity.create", apperr.CodeDuplicate, "email already registered")
	}
	r.users.Put(u.ID, *u)
	return nil
}

func (r *userRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.users.Get(id)
	if !ok {
		return nil, apperr.NotFound("identity.get", "user")
	}
	return &u, nil
}

func (r *userRepoMemory) GetByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(email)
	u, ok := r.users.Find(func(x User) bool { return strings.ToLower(x.Email) == email })
	if !ok {
		return nil, apperr.NotFound("identity.get", "user")
	}
	return &u, nil
}

func (r *userRepoMemory) List(_ context.Context, role string) ([]*User, error) {
	rows := r.users.Select(func(u User) bool { return role == "" || u.Role == role }, nil)
	out := make([]*User, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}
