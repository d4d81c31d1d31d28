// Package backend is the platform the services run against: a document store,
// a blob store and account/session issuance.
//
// Callers never hold the stores directly. A Factory hands out two kinds of
// client. Admin clients carry full document, blob and account privileges and are
// used by server-side orchestration. Session clients are bound to one signed-in
// account and are obtained from a session token; an invalid or revoked token
// yields apperr.ErrUnauthenticated.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/auth"
	"tush00nka/filestash/internal/pkg/mail"
	"tush00nka/filestash/internal/repository"
)

type BlobStore interface {
	StoreBlob(ctx context.Context, bucket, name, contentType string, body io.Reader) (*model.Blob, error)
	DeleteBlob(ctx context.Context, bucket, blobID string) error
	PresignView(ctx context.Context, bucket, blobID string, expires time.Duration) (string, error)
}

// AccountIssuer runs the email one-time-code sign-in exchange.
type AccountIssuer interface {
	// CreateEmailToken sends a code to email and returns the challenge id,
	// which is the id of the account the code belongs to.
	CreateEmailToken(ctx context.Context, email string) (string, error)
	// CreateSession exchanges a code for a signed session token.
	CreateSession(ctx context.Context, challengeID, code string) (string, error)
}

type AdminClient struct {
	Files    repository.FileRepository
	Users    repository.UserRepository
	Storage  BlobStore
	Accounts AccountIssuer
}

type SessionClient struct {
	Account *model.Account
	Users   repository.UserRepository

	sessionID string
	sessions  repository.SessionRepository
}

// DeleteSession revokes the session this client was built from.
func (c *SessionClient) DeleteSession(ctx context.Context) error {
	if err := c.sessions.Delete(ctx, c.sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

type Deps struct {
	Files      repository.FileRepository
	Users      repository.UserRepository
	Accounts   repository.AccountRepository
	Challenges repository.ChallengeRepository
	Sessions   repository.SessionRepository
	Storage    BlobStore
	Mailer     mail.Sender
	Tokens     *auth.TokenIssuer

	CodeTTL     time.Duration
	MaxAttempts int
	HashCost    int
}

type Factory struct {
	deps   Deps
	issuer *accountIssuer
}

func NewFactory(deps Deps) *Factory {
	if deps.CodeTTL <= 0 {
		deps.CodeTTL = 10 * time.Minute
	}
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = 5
	}
	if deps.HashCost == 0 {
		deps.HashCost = bcrypt.DefaultCost
	}
	return &Factory{
		deps:   deps,
		issuer: &accountIssuer{deps: deps},
	}
}

func (f *Factory) Admin() *AdminClient {
	return &AdminClient{
		Files:    f.deps.Files,
		Users:    f.deps.Users,
		Storage:  f.deps.Storage,
		Accounts: f.issuer,
	}
}

// Session resolves token to the account it was issued for.
func (f *Factory) Session(ctx context.Context, token string) (*SessionClient, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing session token", apperr.ErrUnauthenticated)
	}

	claims, err := f.deps.Tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	accountID, err := f.deps.Sessions.AccountID(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: session revoked or expired", apperr.ErrUnauthenticated)
		}
		return nil, err
	}
	if accountID != claims.AccountID() {
		return nil, fmt.Errorf("%w: session does not match token", apperr.ErrUnauthenticated)
	}

	account, err := f.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: account is gone", apperr.ErrUnauthenticated)
		}
		return nil, err
	}

	return &SessionClient{
		Account:   account,
		Users:     f.deps.Users,
		sessionID: claims.SessionID(),
		sessions:  f.deps.Sessions,
	}, nil
}
