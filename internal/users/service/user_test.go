package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	userserrors "hostkeep/internal/users/errors"
	"hostkeep/internal/users/validator"
	"hostkeep/pkg/auth"
	"hostkeep/pkg/config"
	apperrors "hostkeep/pkg/errors"
	"hostkeep/pkg/logger"
	"hostkeep/pkg/model"
)

type mockUserRepo struct {
	createFunc         func(ctx context.Context, u *model.User) error
	findByIDFunc       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFunc func(ctx context.Context, username string) (*model.User, error)
	updateFunc         func(ctx context.Context, id string, u *model.User) error
	updateHashFunc     func(ctx context.Context, id string, passwordHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, u)
	}
	u.ID = "64c0d1e2f3a4b5c6d7e8f9a0"
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, username)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, u *model.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, u)
	}
	return nil
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	if m.updateHashFunc != nil {
		return m.updateHashFunc(ctx, id, passwordHash)
	}
	return nil
}

func newTestService(repo *mockUserRepo) UserService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}
	return NewUserService(
		repo,
		validator.NewUserValidator(log),
		auth.NewPasswordManager(),
		auth.NewTokenManager("test-secret-key", time.Hour),
		cfg,
	)
}

func TestRegister(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "  Anna.Host  ",
		Password: "correct-horse",
		Name:     "Anna",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Token == "" {
		t.Error("expected a token on registration")
	}
	if resp.User.Username != "anna.host" {
		t.Errorf("username not normalized: %q", resp.User.Username)
	}
	if resp.User.Role != model.RoleHostPrivate {
		t.Errorf("expected default role %s, got %s", model.RoleHostPrivate, resp.User.Role)
	}
	if resp.User.PasswordHash == "correct-horse" {
		t.Error("password must not be stored in plaintext")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, u *model.User) error {
			return fmt.Errorf("%w: %s", userserrors.ErrDuplicateUsername, u.Username)
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "anna",
		Password: "correct-horse",
	})
	if err == nil {
		t.Fatal("expected an error for duplicate username")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "anna",
		Password: "short",
	})
	if err == nil {
		t.Fatal("expected an error for weak password")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation && appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected a client error, got %v", err)
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "anna",
		Password: "correct-horse",
		Role:     "SUPERADMIN",
	})
	if err == nil {
		t.Fatal("expected an error for unknown role")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	passwords := auth.NewPasswordManager()
	hash, err := passwords.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	stored := &model.User{
		ID:           "64c0d1e2f3a4b5c6d7e8f9a0",
		Username:     "anna",
		PasswordHash: hash,
		Role:         model.RoleHostPrivate,
	}
	repo := &mockUserRepo{
		findByUsernameFunc: func(ctx context.Context, username string) (*model.User, error) {
			if username == "anna" {
				return stored, nil
			}
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, username)
		},
	}
	svc := newTestService(repo)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), &model.LoginRequest{
			Username: "Anna",
			Password: "correct-horse",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected a token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Username: "anna",
			Password: "wrong-password",
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
		if appErr.Message != "Invalid username or password" {
			t.Errorf("unexpected message: %q", appErr.Message)
		}
	})

	t.Run("unknown username gives the same answer", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Username: "nobody",
			Password: "correct-horse",
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
		if appErr.Message != "Invalid username or password" {
			t.Errorf("username probing must be impossible, got %q", appErr.Message)
		}
	})
}

func TestChangePassword(t *testing.T) {
	passwords := auth.NewPasswordManager()
	hash, err := passwords.HashPassword("old-password")
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	var storedHash string
	repo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "anna", PasswordHash: hash, Role: model.RoleHostPrivate}, nil
		},
		updateHashFunc: func(ctx context.Context, id string, passwordHash string) error {
			storedHash = passwordHash
			return nil
		},
	}
	svc := newTestService(repo)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), "64c0d1e2f3a4b5c6d7e8f9a0", &model.PasswordChangeRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "brand-new-password",
		})
		if err == nil {
			t.Fatal("expected an error")
		}
		if apperrors.AsAppError(err).Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("valid change", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), "64c0d1e2f3a4b5c6d7e8f9a0", &model.PasswordChangeRequest{
			CurrentPassword: "old-password",
			NewPassword:     "brand-new-password",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if storedHash == "" || storedHash == hash {
			t.Error("expected a new hash to be stored")
		}
	})
}
