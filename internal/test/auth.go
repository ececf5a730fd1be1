package test

import (
	"context"
	"strings"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
	pkgAuth "github.com/GS-Pro2025/movewise/internal/pkg/auth"
)

// StrategyStub issues and parses tokens via function overrides.
type StrategyStub struct {
	IssueFn func(string) (string, error)
	ParseFn func(string) (string, error)
	NameVal string
}

// IssueToken returns "token-<subject>" unless overridden.
func (s StrategyStub) IssueToken(subject string) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(subject)
	}
	return "token-" + subject, nil
}

// ParseToken reverses IssueToken unless overridden.
func (s StrategyStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	subject, ok := strings.CutPrefix(token, "token-")
	if !ok || subject == "" {
		return "", pkgAuth.ErrInvalidToken
	}
	return subject, nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// AuthenticatorStub simulates the remote login endpoint.
type AuthenticatorStub struct {
	LoginFn func(context.Context, string, string) (*model.Session, error)
}

// Login returns a non-admin session carrying a fixed API token by default.
func (s AuthenticatorStub) Login(ctx context.Context, username, password string) (*model.Session, error) {
	if s.LoginFn != nil {
		return s.LoginFn(ctx, username, password)
	}
	return &model.Session{User: username, Token: "api-token"}, nil
}

// SessionResolverStub implements the middleware session lookup.
type SessionResolverStub struct {
	Session   *model.Session
	Err       error
	ResolveFn func(context.Context, string) (*model.Session, error)
}

// Resolve delegates to the override or returns the configured result.
func (s SessionResolverStub) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, token)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Session != nil {
		return s.Session, nil
	}
	return &model.Session{ID: "session-1", User: "tester", Token: "api-token"}, nil
}

var _ pkgAuth.Strategy = StrategyStub{}
