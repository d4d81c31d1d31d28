package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
)

type userService struct {
	backend       Backend
	defaultAvatar string
}

func NewUserService(backend Backend, defaultAvatar string) UserService {
	return &userService{backend: backend, defaultAvatar: defaultAvatar}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) SignUp(ctx context.Context, fullName, email string) (string, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return "", fmt.Errorf("%w: full name and email are required", apperr.ErrValidation)
	}

	admin := s.backend.Admin()

	exists, err := admin.Users.EmailExists(ctx, email)
	if err != nil {
		return "", err
	}

	accountID, err := admin.Accounts.CreateEmailToken(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to send code: %w", err)
	}

	if !exists {
		user := &model.User{
			AccountID: accountID,
			FullName:  fullName,
			Email:     email,
			AvatarURL: s.defaultAvatar,
		}
		if err := admin.Users.Create(ctx, user); err != nil {
			return "", fmt.Errorf("failed to create user: %w", err)
		}
	}

	return accountID, nil
}

func (s *userService) SignIn(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", apperr.ErrValidation)
	}

	admin := s.backend.Admin()

	if _, err := admin.Users.FindByEmail(ctx, email); err != nil {
		return "", err
	}

	accountID, err := admin.Accounts.CreateEmailToken(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to send code: %w", err)
	}
	return accountID, nil
}

func (s *userService) Verify(ctx context.Context, accountID, code string) (string, error) {
	return s.backend.Admin().Accounts.CreateSession(ctx, accountID, strings.TrimSpace(code))
}

func (s *userService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	session, err := s.backend.Session(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := session.Users.FindByAccountID(ctx, session.Account.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user for account %s", apperr.ErrUnauthenticated, session.Account.ID)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) SignOut(ctx context.Context, token string) error {
	session, err := s.backend.Session(ctx, token)
	if err != nil {
		return err
	}
	return session.DeleteSession(ctx)
}
