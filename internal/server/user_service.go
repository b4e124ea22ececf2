package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/config"
	"github.com/jonathan/izzy/internal/db"
	"github.com/jonathan/izzy/internal/types"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	CreateAnonymousUser(ctx context.Context) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

var _ UserStore = (*db.DB)(nil)

// UserService provides business logic for user authentication operations
type UserService struct {
	db             UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		db:             store,
		passwordConfig: passwordConfig,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	return &types.User{
		ID:          dbUser.ID,
		Name:        dbUser.Name,
		Email:       dbUser.Email,
		PasswordSet: dbUser.PasswordSet,
		IsAnonymous: dbUser.IsAnonymous,
		CreatedAt:   dbUser.CreatedAt,
		UpdatedAt:   dbUser.UpdatedAt,
	}
}

// Register creates a new user with password authentication
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	exists, err := s.db.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, &ErrValidation{Field: "password", Message: err.Error()}
	}

	userID, err := s.db.CreateUser(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, &ErrEmailAlreadyExists{Email: req.Email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if dbUser == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// CreateAnonymous creates a guest account that can only authenticate with its token.
func (s *UserService) CreateAnonymous(ctx context.Context) (*types.User, error) {
	dbUser, err := s.db.CreateAnonymousUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymous user: %w", err)
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	dbUser, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if dbUser == nil || !dbUser.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	// Upgrade hashes made under an older BCRYPT_COST. The old hash keeps
	// working if this fails.
	if s.passwordConfig.NeedsRehash(dbUser.PasswordHash) {
		if hash, err := s.passwordConfig.HashPassword(req.Password); err == nil {
			_ = s.db.UpdatePassword(ctx, dbUser.ID, hash)
		}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// GetUser returns the profile of an authenticated user.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBUserToTypesUser(dbUser), nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	dbUser, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return &ErrUserNotFound{UserID: userID}
	}
	if dbUser.IsAnonymous || !dbUser.PasswordSet {
		return &ErrValidation{Field: "current_password", Message: "account has no password"}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, dbUser.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return &ErrValidation{Field: "new_password", Message: err.Error()}
	}

	if err := s.db.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
