package auth

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "expatgram"

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a credential to the system keychain
func (k *KeyringStore) Store(name, value string) error {
	if name == "" || value == "" {
		return ErrInvalidCredential
	}

	if err := keyring.Set(keyringService, name, value); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets a credential from the system keychain
func (k *KeyringStore) Retrieve(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidCredential
	}

	value, err := keyring.Get(keyringService, name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrCredentialNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	return value, nil
}

// Delete removes a credential from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(keyringService, name); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a credential is present in the keychain
func (k *KeyringStore) Exists(name string) bool {
	_, err := keyring.Get(keyringService, name)
	return err == nil
}
