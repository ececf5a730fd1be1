package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	pkgAuth "github.com/GS-Pro2025/movewise/internal/pkg/auth"
)

// SessionUseCase handles login against the remote API and session tokens.
type SessionUseCase struct {
	remote Authenticator
	store  SessionStore
	tokens pkgAuth.Strategy
}

// NewSessionUseCase constructs SessionUseCase.
func NewSessionUseCase(remote Authenticator, store SessionStore, strategy pkgAuth.Strategy) *SessionUseCase {
	return &SessionUseCase{remote: remote, store: store, tokens: strategy}
}

// Login authenticates against the remote API, persists the session and
// returns it with a signed session token.
func (u *SessionUseCase) Login(ctx context.Context, username, password string) (*model.Session, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	remote, err := u.remote.Login(ctx, username, password)
	if err != nil {
		return nil, "", err
	}

	session, err := u.store.Create(ctx, *remote)
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(session.ID)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Resolve returns the session a token was issued for.
func (u *SessionUseCase) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, pkgAuth.ErrInvalidToken
	}
	id, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	session, err := u.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrUnauthorized
		}
		return nil, err
	}
	return session, nil
}

// Logout drops the session.
func (u *SessionUseCase) Logout(ctx context.Context, sessionID string) error {
	return u.store.Delete(ctx, sessionID)
}
