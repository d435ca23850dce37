package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"studyhub/pkg/ai"
	"studyhub/pkg/store"
)

// memObjects is an in-memory ObjectStore for tests.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) PublicURL(key string) string {
	return "http://objects.test/" + key
}

func (m *memObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://objects.test/" + key + "?signed=1", nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// stubGenerator replays fixed chunks and counts invocations.
type stubGenerator struct {
	mu     sync.Mutex
	chunks []string
	err    error
	calls  int
}

func (g *stubGenerator) StreamText(_ context.Context, _ string, _ []ai.ChatMessage, onDelta func(string) error) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	for _, chunk := range g.chunks {
		if err := onDelta(chunk); err != nil {
			return err
		}
	}
	return g.err
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fixture struct {
	app     *App
	store   *store.MemoryStore
	objects *memObjects
	gen     *stubGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	memStore := store.NewMemoryStore()
	objects := newMemObjects()
	gen := &stubGenerator{chunks: []string{"Hello", ", ", "student!"}}
	a, err := New(Config{
		JWTSecret: "test-secret",
		Store:     memStore,
		Objects:   objects,
		Generator: gen,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &fixture{app: a, store: memStore, objects: objects, gen: gen}
}

func (f *fixture) signUp(t *testing.T, email string) string {
	t.Helper()
	user, _, err := f.app.SignUp(SignUpInput{
		Email:    email,
		Password: "secret123",
		Name:     "Test Student",
	})
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return user.ID
}
