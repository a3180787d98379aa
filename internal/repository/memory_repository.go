package repository

import (
	"context"
	"sync"
	"time"

	"accounts-api/internal/entities"
)

// memoryRepository is an in-memory UserRepository used by tests and local
// runs without a database. Uniqueness and single-row semantics mirror the
// postgres implementation.
type memoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]*entities.User
	resets map[int64]resetEntry
	nextID int64
}

type resetEntry struct {
	token     string
	expiresAt time.Time
}

// NewMemoryRepository creates an empty in-memory user repository
func NewMemoryRepository() UserRepository {
	return &memoryRepository{
		users:  make(map[int64]*entities.User),
		resets: make(map[int64]resetEntry),
		nextID: 1,
	}
}

func (r *memoryRepository) emailTaken(email string, excludeID int64) bool {
	for _, u := range r.users {
		if u.Email == email && u.ID != excludeID {
			return true
		}
	}
	return false
}

func copyUser(u *entities.User) *entities.User {
	c := *u
	if u.BirthAt != nil {
		birthAt := *u.BirthAt
		c.BirthAt = &birthAt
	}
	return &c
}

func (r *memoryRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return nil, ErrDuplicateEmail
	}

	now := time.Now()
	created := copyUser(user)
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++
	r.users[created.ID] = created
	return copyUser(created), nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id int64) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *memoryRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) FindAll(ctx context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*entities.User, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *memoryRepository) Update(ctx context.Context, id int64, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.emailTaken(user.Email, id) {
		return nil, ErrDuplicateEmail
	}

	existing.Name = user.Name
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.BirthAt = user.BirthAt
	existing.Role = user.Role
	existing.UpdatedAt = time.Now()
	return copyUser(existing), nil
}

func (r *memoryRepository) UpdatePartial(ctx context.Context, id int64, changes UserChanges) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if changes.Email != nil && r.emailTaken(*changes.Email, id) {
		return nil, ErrDuplicateEmail
	}

	if changes.Name != nil {
		existing.Name = *changes.Name
	}
	if changes.Email != nil {
		existing.Email = *changes.Email
	}
	if changes.PasswordHash != nil {
		existing.PasswordHash = *changes.PasswordHash
	}
	if changes.BirthAt != nil {
		birthAt := *changes.BirthAt
		existing.BirthAt = &birthAt
	}
	if changes.Role != nil {
		existing.Role = *changes.Role
	}
	existing.UpdatedAt = time.Now()
	return copyUser(existing), nil
}

func (r *memoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.resets, id)
	return nil
}

func (r *memoryRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *memoryRepository) SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	r.resets[id] = resetEntry{token: token, expiresAt: expiresAt}
	return nil
}

func (r *memoryRepository) FindByResetToken(ctx context.Context, token string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, entry := range r.resets {
		if entry.token == token && entry.expiresAt.After(time.Now()) {
			if u, ok := r.users[id]; ok {
				return copyUser(u), nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) ClearResetToken(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.resets, id)
	return nil
}
