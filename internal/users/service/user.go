package service

import (
	"context"
	"errors"

	userserrors "hostkeep/internal/users/errors"
	"hostkeep/internal/users/repository"
	"hostkeep/internal/users/validator"
	"hostkeep/pkg/auth"
	"hostkeep/pkg/config"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/model"
	"hostkeep/pkg/sanitizer"
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id string, req *model.PasswordChangeRequest) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	passwords *auth.PasswordManager
	tokens    *auth.TokenManager
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	passwords *auth.PasswordManager,
	tokens *auth.TokenManager,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		passwords: passwords,
		tokens:    tokens,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.LoginResponse, error) {
	req.Username = sanitizer.NormalizeUsername(req.Username)
	req.Name = sanitizer.NormalizeName(req.Name)
	if req.Role == "" {
		req.Role = model.RoleHostPrivate
	}

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("User registration validation failed",
			"username", req.Username,
			"error", err,
		)
		return nil, apperrors.Validation("User validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	u := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUsername) {
			return nil, apperrors.Conflict("Username already taken")
		}
		s.cfg.Log.Error("Failed to create user",
			"username", req.Username,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User registered successfully",
		"id", u.ID,
		"username", u.Username,
		"role", u.Role,
	)
	return &model.LoginResponse{Token: token, User: u}, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	req.Username = sanitizer.NormalizeUsername(req.Username)

	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	u, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			// Same answer as a wrong password so usernames cannot be probed.
			return nil, apperrors.Unauthorized("Invalid username or password")
		}
		s.cfg.Log.Error("Failed to look up user for login",
			"username", req.Username,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := s.passwords.ComparePassword(u.PasswordHash, req.Password); err != nil {
		s.cfg.Log.Warn("Login attempt with wrong password", "username", req.Username)
		return nil, apperrors.Unauthorized("Invalid username or password")
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "id", u.ID, "username", u.Username)
	return &model.LoginResponse{Token: token, User: u}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to get user by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return u, nil
}

func (s *userService) Update(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	if updates.Name != nil {
		normalized := sanitizer.NormalizeName(*updates.Name)
		updates.Name = &normalized
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("User validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		existing.Name = *updates.Name
	}
	if updates.Role != "" {
		existing.Role = updates.Role
	}

	if err := s.repo.Update(ctx, id, existing); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User updated successfully", "id", id)
	return existing, nil
}

func (s *userService) ChangePassword(ctx context.Context, id string, req *model.PasswordChangeRequest) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	if err := s.validator.ValidatePasswordChange(req); err != nil {
		return apperrors.Validation("Password validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.passwords.ComparePassword(u.PasswordHash, req.CurrentPassword); err != nil {
		s.cfg.Log.Warn("Password change with wrong current password", "id", id)
		return apperrors.Unauthorized("Current password is incorrect")
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return apperrors.InvalidInput(err.Error())
		}
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		s.cfg.Log.Error("Failed to change password", "id", id, "error", err)
		return apperrors.Internal("Failed to change password", err)
	}

	s.cfg.Log.Info("Password changed successfully", "id", id)
	return nil
}
