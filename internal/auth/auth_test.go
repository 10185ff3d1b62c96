package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"salat-go/internal/config"
	"salat-go/internal/testutil"
)

const secret = "test-secret"

func newTestProvider(t *testing.T) (*TokenProvider, *testutil.MemoryKV, *testutil.StubClock) {
	t.Helper()
	kv := testutil.NewMemoryKV()
	clock := testutil.FixedClock()
	p, err := NewTokenProvider(kv, secret, clock)
	if err != nil {
		t.Fatal(err)
	}
	return p, kv, clock
}

func issue(t *testing.T, key, user string, now time.Time, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(key, user, now, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestTokenProvider_LoginLogout(t *testing.T) {
	ctx := context.Background()
	p, kv, clock := newTestProvider(t)

	var seen []string
	unsubscribe := p.Subscribe(func(id string) { seen = append(seen, id) })
	defer unsubscribe()

	if user, _ := p.CurrentUser(ctx); user != "" {
		t.Fatalf("CurrentUser() before login = %q", user)
	}

	user, err := p.Login(ctx, issue(t, secret, "user-1", clock.Now(), time.Hour))
	if err != nil || user != "user-1" {
		t.Fatalf("Login() = %q, %v", user, err)
	}
	if _, ok := kv.Snapshot()[tokenKey]; !ok {
		t.Error("token not persisted")
	}
	if got, _ := p.CurrentUser(ctx); got != "user-1" {
		t.Errorf("CurrentUser() = %q", got)
	}

	if err := p.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.CurrentUser(ctx); got != "" {
		t.Errorf("CurrentUser() after logout = %q", got)
	}
	if len(seen) != 2 || seen[0] != "user-1" || seen[1] != "" {
		t.Errorf("notifications = %q", seen)
	}
}

func TestTokenProvider_Expiry(t *testing.T) {
	ctx := context.Background()
	p, _, clock := newTestProvider(t)

	if _, err := p.Login(ctx, issue(t, secret, "user-1", clock.Now(), time.Hour)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Hour)
	if got, err := p.CurrentUser(ctx); err != nil || got != "" {
		t.Errorf("CurrentUser() after expiry = %q, %v", got, err)
	}
}

func TestTokenProvider_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	p, kv, clock := newTestProvider(t)
	now := clock.Now()

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(secret))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte(secret))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong secret", issue(t, "other", "user-1", now, time.Hour), jwt.ErrTokenSignatureInvalid},
		{"expired", issue(t, secret, "user-1", now.Add(-2*time.Hour), time.Hour), jwt.ErrTokenExpired},
		{"no subject", noSubject, ErrMissingSubject},
		{"no expiry", noExpiry, jwt.ErrTokenRequiredClaimMissing},
		{"garbage", "not.a.token", jwt.ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Login(ctx, tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Login() error = %v, want %v", err, tt.want)
			}
			if _, ok := kv.Snapshot()[tokenKey]; ok {
				t.Error("rejected token was stored")
			}
		})
	}
}

func TestFixedProviders(t *testing.T) {
	ctx := context.Background()

	static := NewStaticProvider("user-9")
	if got, _ := static.CurrentUser(ctx); got != "user-9" {
		t.Errorf("static CurrentUser() = %q", got)
	}
	if _, err := static.Login(ctx, "x"); !errors.Is(err, ErrLoginUnsupported) {
		t.Errorf("static Login() error = %v", err)
	}

	var none NoneProvider
	if got, _ := none.CurrentUser(ctx); got != "" {
		t.Errorf("none CurrentUser() = %q", got)
	}
	if err := none.Logout(ctx); !errors.Is(err, ErrLoginUnsupported) {
		t.Errorf("none Logout() error = %v", err)
	}
	none.Subscribe(func(string) {})()
}

func TestNewAuthFromConfig(t *testing.T) {
	kv := testutil.NewMemoryKV()
	clock := testutil.FixedClock()

	tests := []struct {
		name     string
		cfg      config.AuthConfig
		env      string
		wantType string
		wantErr  bool
	}{
		{"default", config.AuthConfig{}, "", "auth.NoneProvider", false},
		{"static", config.AuthConfig{Type: "static", StaticUserID: "u"}, "", "*auth.StaticProvider", false},
		{"static without user", config.AuthConfig{Type: "static"}, "", "", true},
		{"token", config.AuthConfig{Type: "token", JWTSecret: "s"}, "", "*auth.TokenProvider", false},
		{"token from env", config.AuthConfig{Type: "token"}, "env-secret", "*auth.TokenProvider", false},
		{"token without secret", config.AuthConfig{Type: "token"}, "", "", true},
		{"unknown", config.AuthConfig{Type: "oauth"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(SecretEnv, tt.env)
			p, err := NewAuthFromConfig(tt.cfg, kv, clock)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if got := typeName(p); got != tt.wantType {
					t.Errorf("type = %s, want %s", got, tt.wantType)
				}
			}
		})
	}
}

func TestNewAuthFromConfig_EnvOverridesSecret(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	t.Setenv(SecretEnv, "env-secret")

	p, err := NewAuthFromConfig(config.AuthConfig{Type: "token", JWTSecret: "file-secret"}, testutil.NewMemoryKV(), clock)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Login(ctx, issue(t, "env-secret", "user-1", clock.Now(), time.Hour)); err != nil {
		t.Errorf("Login() with env secret: %v", err)
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
