package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type stubAuth struct {
	user string
	err  error
}

func (s stubAuth) CurrentUser(context.Context) (string, error) { return s.user, s.err }

func TestResolvePrefersAuthenticatedUser(t *testing.T) {
	r := NewResolver(stubAuth{user: "alice"}, slog.New(slog.DiscardHandler))

	if got := r.Resolve(context.Background()); got != "alice" {
		t.Errorf("Resolve = %q, want alice", got)
	}
}

func TestResolveFallsBackToGeneratedGuest(t *testing.T) {
	r := NewResolver(stubAuth{err: errors.New("auth down")}, slog.New(slog.DiscardHandler))

	got := r.Resolve(context.Background())
	if !strings.HasPrefix(got, "guest-") {
		t.Fatalf("Resolve = %q, want guest- prefix", got)
	}
}

func TestResolveCachesGeneratedIdentity(t *testing.T) {
	r := NewResolver(nil, slog.New(slog.DiscardHandler))

	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())
	if first != second {
		t.Errorf("generated identity not stable: %q then %q", first, second)
	}
}

func TestResolveAuthRecoveryWinsOverCache(t *testing.T) {
	auth := &flakyAuth{}
	r := NewResolver(auth, slog.New(slog.DiscardHandler))

	guest := r.Resolve(context.Background())
	if !strings.HasPrefix(guest, "guest-") {
		t.Fatalf("Resolve = %q, want guest- prefix while auth is down", guest)
	}

	auth.user = "bob"
	if got := r.Resolve(context.Background()); got != "bob" {
		t.Errorf("Resolve = %q, want bob once auth recovers", got)
	}
}

type flakyAuth struct {
	user string
}

func (f *flakyAuth) CurrentUser(context.Context) (string, error) {
	if f.user == "" {
		return "", errors.New("unavailable")
	}
	return f.user, nil
}
