package testutil

import (
	"context"
	"sync"

	"salat-go/internal/salat"
)

// StubAuth is a salat.AuthProvider whose user is set by the test.
type StubAuth struct {
	mu     sync.Mutex
	userID string
	nextID int
	subs   map[int]func(string)
}

var _ salat.AuthProvider = (*StubAuth)(nil)

func NewStubAuth(userID string) *StubAuth {
	return &StubAuth{userID: userID, subs: make(map[int]func(string))}
}

func (a *StubAuth) CurrentUser(context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID, nil
}

func (a *StubAuth) Subscribe(fn func(string)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
	}
}

// SetUser changes the user and notifies subscribers synchronously.
func (a *StubAuth) SetUser(userID string) {
	a.mu.Lock()
	a.userID = userID
	fns := make([]func(string), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}
