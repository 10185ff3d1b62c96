// Package auth supplies the signed-in user to the sync session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"salat-go/internal/salat"
)

const tokenKey = "auth_token"

var (
	// ErrLoginUnsupported is returned by providers whose user is fixed.
	ErrLoginUnsupported = errors.New("login not supported by this auth provider")
	ErrMissingSubject   = errors.New("token has no subject")
)

// Provider is a salat.AuthProvider the CLI can sign in and out of.
type Provider interface {
	salat.AuthProvider
	// Login signs in with credential and returns the user id.
	Login(ctx context.Context, credential string) (string, error)
	Logout(ctx context.Context) error
}

// subscribers fans a session change out to every registered callback.
type subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(string)
}

func (s *subscribers) add(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(string))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) notify(userID string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}

// TokenProvider signs in with an HS256 JWT whose subject is the user id.
// The token is kept in the device store so the session survives restarts;
// once it expires the device is treated as signed out.
type TokenProvider struct {
	kv     salat.KeyValueStore
	secret []byte
	clock  salat.Clock
	subs   subscribers
}

var _ Provider = (*TokenProvider)(nil)

func NewTokenProvider(kv salat.KeyValueStore, secret string, clock salat.Clock) (*TokenProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &TokenProvider{kv: kv, secret: []byte(secret), clock: clock}, nil
}

// IssueToken signs a token for userID valid for ttl from now.
func IssueToken(secret, userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (p *TokenProvider) parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

func (p *TokenProvider) Login(ctx context.Context, token string) (string, error) {
	userID, err := p.parse(token)
	if err != nil {
		return "", fmt.Errorf("verifying token: %w", err)
	}
	if err := p.kv.Set(ctx, tokenKey, token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	p.subs.notify(userID)
	return userID, nil
}

func (p *TokenProvider) Logout(ctx context.Context) error {
	if err := p.kv.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	p.subs.notify("")
	return nil
}

// CurrentUser returns the stored token's subject, or "" when there is no
// valid token.
func (p *TokenProvider) CurrentUser(ctx context.Context) (string, error) {
	token, ok, err := p.kv.Get(ctx, tokenKey)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if !ok {
		return "", nil
	}
	userID, err := p.parse(token)
	if err != nil {
		return "", nil
	}
	return userID, nil
}

func (p *TokenProvider) Subscribe(fn func(string)) func() {
	return p.subs.add(fn)
}

// StaticProvider is always signed in as one user.
type StaticProvider struct {
	userID string
}

var _ Provider = (*StaticProvider)(nil)

func NewStaticProvider(userID string) *StaticProvider {
	return &StaticProvider{userID: userID}
}

func (p *StaticProvider) CurrentUser(context.Context) (string, error) { return p.userID, nil }
func (p *StaticProvider) Subscribe(func(string)) func()               { return func() {} }

func (p *StaticProvider) Login(context.Context, string) (string, error) {
	return "", ErrLoginUnsupported
}

func (p *StaticProvider) Logout(context.Context) error { return ErrLoginUnsupported }

// NoneProvider is never signed in; every write stays local.
type NoneProvider struct{}

var _ Provider = NoneProvider{}

func (NoneProvider) CurrentUser(context.Context) (string, error) { return "", nil }
func (NoneProvider) Subscribe(func(string)) func()               { return func() {} }

func (NoneProvider) Login(context.Context, string) (string, error) {
	return "", ErrLoginUnsupported
}

func (NoneProvider) Logout(context.Context) error { return ErrLoginUnsupported }
