package auth

import "sync"

// MockStore is an in-memory CredentialStore for testing
type MockStore struct {
	mu     sync.Mutex
	values map[string]string

	// Fail forces every operation to report the store as unavailable
	Fail bool
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{values: make(map[string]string)}
}

// Store saves a credential in memory
func (m *MockStore) Store(name, value string) error {
	if m.Fail {
		return ErrStoreUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

// Retrieve gets a credential from memory
func (m *MockStore) Retrieve(name string) (string, error) {
	if m.Fail {
		return "", ErrStoreUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[name]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return value, nil
}

// Delete removes a credential from memory
func (m *MockStore) Delete(name string) error {
	if m.Fail {
		return ErrStoreUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[name]; !ok {
		return ErrCredentialNotFound
	}
	delete(m.values, name)
	return nil
}

// Exists checks if a credential is present in memory
func (m *MockStore) Exists(name string) bool {
	if m.Fail {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[name]
	return ok
}
