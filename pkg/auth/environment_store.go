package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It exists so exported TWITTER_* variables keep working without an explicit
// login step.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(label string) (*Account, error) {
	account := &Account{
		BearerToken:  os.Getenv("TWITTER_BEARER_TOKEN"),
		ClientID:     os.Getenv("TWITTER_CLIENT_ID"),
		ClientSecret: os.Getenv("TWITTER_CLIENT_SECRET"),
		Username:     os.Getenv("TWITTER_USERNAME"),
		Password:     os.Getenv("TWITTER_PASSWORD"),
		LastModified: time.Now(),
	}

	if !account.HasAPIAccess() && !account.HasLogin() {
		return nil, ErrCredentialsNotFound
	}

	// The environment carries no label, so use "default" when none is asked for
	if label == "" {
		label = "default"
	}
	account.Label = label

	return account, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(label string) bool {
	_, err := e.Retrieve(label)
	return err == nil
}
