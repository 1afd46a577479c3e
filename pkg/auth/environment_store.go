package auth

import "os"

// envVarNames maps credential names to their environment variables.
var envVarNames = map[string]string{
	CredentialApifyToken:   "APIFY_TOKEN",
	CredentialGeminiAPIKey: "GEMINI_API_KEY",
	CredentialDatabaseURL:  "DATABASE_URL",
}

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and serves as the last-resort fallback.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(name, value string) error {
	return ErrStoreUnavailable
}

// Retrieve gets a credential from its environment variable
func (e *EnvironmentStore) Retrieve(name string) (string, error) {
	envVar, ok := envVarNames[name]
	if !ok {
		return "", ErrInvalidCredential
	}

	value := os.Getenv(envVar)
	if value == "" {
		return "", ErrCredentialNotFound
	}

	return value, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment variable is set
func (e *EnvironmentStore) Exists(name string) bool {
	envVar, ok := envVarNames[name]
	if !ok {
		return false
	}
	return os.Getenv(envVar) != ""
}
