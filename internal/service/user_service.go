package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"accounts-api/internal/cache"
	"accounts-api/internal/entities"
	"accounts-api/internal/models"
	"accounts-api/internal/password"
	"accounts-api/internal/repository"
)

// ParseBirthAt parses an optional YYYY-MM-DD date string from a request body.
func ParseBirthAt(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, fmt.Errorf("invalid birth date %q: %w", *value, err)
	}
	return &parsed, nil
}

// UserService defines the interface for user lifecycle operations
type UserService interface {
	Create(ctx context.Context, req *models.CreateUserRequest) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
	Show(ctx context.Context, id int64) (*entities.User, error)
	Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*entities.User, error)
	UpdatePartial(ctx context.Context, id int64, req *models.PatchUserRequest) (*entities.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	cache    cache.Cache
}

// NewUserService creates a new user service. cacheClient may be nil.
func NewUserService(userRepo repository.UserRepository, hasher password.Hasher, cacheClient cache.Cache) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		cache:    cacheClient,
	}
}

// exists returns repository.ErrNotFound when no user has the given id.
// The check and the following mutation are deliberately not transactional;
// the unique email index still guards the one invariant that matters.
func (s *userService) exists(ctx context.Context, id int64) error {
	found, err := s.userRepo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !found {
		return repository.ErrNotFound
	}
	return nil
}

// invalidate drops a cached user record after a mutation
func (s *userService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf("user:%d", id)); err != nil {
		log.Printf("Warning: failed to invalidate cached user %d: %v", id, err)
	}
}

// Create inserts a new user with a hashed password
func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*entities.User, error) {
	birthAt, err := ParseBirthAt(req.BirthAt)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	role := entities.RoleUser
	if req.Role != nil {
		role = entities.Role(*req.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("invalid role %q", *req.Role)
		}
	}

	return s.userRepo.Create(ctx, &entities.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		BirthAt:      birthAt,
		Role:         role,
	})
}

// List returns all users
func (s *userService) List(ctx context.Context) ([]*entities.User, error) {
	return s.userRepo.FindAll(ctx)
}

// Show returns a single user by id
func (s *userService) Show(ctx context.Context, id int64) (*entities.User, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, id)
}

// Update replaces every field of a user; the password is rehashed
func (s *userService) Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*entities.User, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	birthAt, err := ParseBirthAt(req.BirthAt)
	if err != nil {
		return nil, err
	}

	role := entities.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, id, &entities.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		BirthAt:      birthAt,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return updated, nil
}

// UpdatePartial updates only the fields present in the request. A supplied
// password is rehashed; a supplied role must be one of the declared values.
func (s *userService) UpdatePartial(ctx context.Context, id int64, req *models.PatchUserRequest) (*entities.User, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	changes := repository.UserChanges{
		Name:  req.Name,
		Email: req.Email,
	}

	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hashed
	}

	if req.BirthAt != nil {
		birthAt, err := ParseBirthAt(req.BirthAt)
		if err != nil {
			return nil, err
		}
		changes.BirthAt = birthAt
	}

	if req.Role != nil {
		role := entities.Role(*req.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("invalid role %q", *req.Role)
		}
		changes.Role = &role
	}

	updated, err := s.userRepo.UpdatePartial(ctx, id, changes)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes a user by id
func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
