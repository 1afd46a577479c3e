// Package auth resolves the external-service credentials the pipeline needs.
//
// Credentials can live in the system keychain (set once via the auth
// subcommand) or in environment variables. Resolution tries the keychain
// first and falls back to the environment, and a missing required credential
// fails the process at startup.
package auth

import (
	"errors"
	"fmt"

	errs "expatgram/pkg/errors"
)

// Credential names known to the stores.
const (
	CredentialApifyToken   = "apify_token"
	CredentialGeminiAPIKey = "gemini_api_key"
	CredentialDatabaseURL  = "database_url"
)

// Names lists every credential the pipeline requires.
var Names = []string{
	CredentialApifyToken,
	CredentialGeminiAPIKey,
	CredentialDatabaseURL,
}

// Credentials holds the resolved secrets for one run.
type Credentials struct {
	ApifyToken   string
	GeminiAPIKey string
	DatabaseURL  string
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential value under its name
	Store(name, value string) error

	// Retrieve gets a credential value by name
	Retrieve(name string) (string, error)

	// Delete removes a credential
	Delete(name string) error

	// Exists checks if a credential is present
	Exists(name string) bool
}

// Errors
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
)

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available backends:
// system keychain first, environment variables as the fallback.
func NewManager() *Manager {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}
}

// NewManagerWithStores creates a manager over explicit stores (for tests).
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a credential using the first store that accepts it
func (m *Manager) Store(name, value string) error {
	if !knownName(name) {
		return fmt.Errorf("%w: unknown credential %q", ErrInvalidCredential, name)
	}
	if value == "" {
		return fmt.Errorf("%w: empty value for %q", ErrInvalidCredential, name)
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(name, value); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets a credential from the first store that has it
func (m *Manager) Retrieve(name string) (string, error) {
	for _, store := range m.stores {
		if value, err := store.Retrieve(name); err == nil && value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCredentialNotFound, name)
}

// Delete removes a credential from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credential: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialNotFound, name)
	}

	return nil
}

// Resolve gathers every required credential, failing fast with a
// credential_missing error that names all absent entries at once.
func (m *Manager) Resolve() (*Credentials, error) {
	values := make(map[string]string, len(Names))
	var missing []string

	for _, name := range Names {
		value, err := m.Retrieve(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		values[name] = value
	}

	if len(missing) > 0 {
		return nil, errs.Newf(errs.ErrorTypeCredentialMissing,
			"missing required credentials: %v", missing)
	}

	return &Credentials{
		ApifyToken:   values[CredentialApifyToken],
		GeminiAPIKey: values[CredentialGeminiAPIKey],
		DatabaseURL:  values[CredentialDatabaseURL],
	}, nil
}

func knownName(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// MaskValue masks all but the first 4 and last 4 characters of a secret
func MaskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
