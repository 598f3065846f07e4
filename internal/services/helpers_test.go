package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/capoo-pm/apiserver/internal/auth"
	"github.com/capoo-pm/apiserver/internal/events"
	"github.com/capoo-pm/apiserver/internal/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testLifetimes = TokenLifetimes{Access: 15 * time.Minute, Refresh: 7 * 24 * time.Hour}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type authFixture struct {
	repo      *store.MemoryUserRepository
	codec     *auth.TokenCodec
	publisher *recordingPublisher
	service   *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	codec, err := auth.NewTokenCodec("test-secret", "HS256")
	require.NoError(t, err)

	repo := store.NewMemoryUserRepository()
	publisher := &recordingPublisher{}
	return &authFixture{
		repo:      repo,
		codec:     codec,
		publisher: publisher,
		service:   NewAuthService(repo, auth.NewPasswordHasher(bcrypt.MinCost), codec, testLifetimes, publisher, nil),
	}
}

func requireKind(t *testing.T, err error, kind Kind, key string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *services.Error, got %T", err)
	require.Equal(t, kind, svcErr.Kind)
	require.Equal(t, key, svcErr.Key)
}
