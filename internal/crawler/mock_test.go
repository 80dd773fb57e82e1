package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
	ttl   map[string]time.Duration
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
		ttl:   make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	m.ttl[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// mockSession serves canned pages by URL and records the calls made on it.
type mockSession struct {
	pages       map[string]string
	navigateErr map[string]error
	missing     map[string]bool
	current     string
	closed      bool
	navigated   []string
}

func newMockSession(pages map[string]string) *mockSession {
	return &mockSession{
		pages:       pages,
		navigateErr: make(map[string]error),
		missing:     make(map[string]bool),
	}
}

func (m *mockSession) Navigate(_ context.Context, url string) error {
	m.navigated = append(m.navigated, url)
	if err, ok := m.navigateErr[url]; ok {
		return err
	}
	if _, ok := m.pages[url]; !ok {
		return errors.New("404 not found")
	}
	m.current = url
	return nil
}

func (m *mockSession) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	if m.missing[selector] {
		return fmt.Errorf("%w: %s", ErrElementTimeout, selector)
	}
	return ctx.Err()
}

func (m *mockSession) SetValue(context.Context, string, string) error { return nil }
func (m *mockSession) Click(context.Context, string) error            { return nil }

func (m *mockSession) HTML(context.Context) (string, error) {
	return m.pages[m.current], nil
}

func (m *mockSession) URL(context.Context) (string, error) {
	return m.current, nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}
