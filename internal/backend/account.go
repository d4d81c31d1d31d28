package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/mail"
)

type accountIssuer struct {
	deps Deps
}

func (a *accountIssuer) CreateEmailToken(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", apperr.ErrValidation)
	}

	account, err := a.deps.Accounts.FindOrCreate(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := mail.GenerateVerificationCode()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), a.deps.HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	err = a.deps.Challenges.Save(ctx, &model.VerificationCode{
		AccountID: account.ID,
		Email:     email,
		Code:      string(hash),
		ExpiresAt: time.Now().Add(a.deps.CodeTTL),
	})
	if err != nil {
		return "", err
	}

	if err := a.deps.Mailer.SendCode(ctx, email, code); err != nil {
		return "", fmt.Errorf("%w: failed to send code: %v", apperr.ErrUnavailable, err)
	}

	return account.ID, nil
}

func (a *accountIssuer) CreateSession(ctx context.Context, challengeID, code string) (string, error) {
	if challengeID == "" || code == "" {
		return "", fmt.Errorf("%w: account id and code are required", apperr.ErrValidation)
	}

	pending, err := a.deps.Challenges.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("%w: no pending code", apperr.ErrUnauthenticated)
		}
		return "", err
	}

	// Counted before the compare so parallel guesses cannot share a slot.
	attempts, err := a.deps.Challenges.CountAttempt(ctx, challengeID, time.Until(pending.ExpiresAt))
	if err != nil {
		return "", err
	}
	if attempts > a.deps.MaxAttempts {
		if err := a.deps.Challenges.Delete(ctx, challengeID); err != nil {
			slog.WarnContext(ctx, "failed to drop exhausted code", "account_id", challengeID, "error", err)
		}
		return "", fmt.Errorf("%w: too many attempts", apperr.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pending.Code), []byte(code)); err != nil {
		return "", fmt.Errorf("%w: invalid code", apperr.ErrUnauthenticated)
	}

	if err := a.deps.Challenges.Delete(ctx, challengeID); err != nil {
		return "", err
	}

	sessionID := uuid.New().String()
	token, err := a.deps.Tokens.Generate(sessionID, challengeID)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}

	if err := a.deps.Sessions.Save(ctx, sessionID, challengeID, a.deps.Tokens.TTL()); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "session created", "account_id", challengeID)
	return token, nil
}
