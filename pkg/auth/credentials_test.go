package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Label:        "work",
		BearerToken:  "bearer_token_value_12345",
		ClientID:     "client_id_value",
		ClientSecret: "client_secret_value_67890",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("work")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Label != account.Label {
		t.Errorf("Label mismatch: got %s, want %s", retrieved.Label, account.Label)
	}
	if retrieved.BearerToken != account.BearerToken {
		t.Errorf("BearerToken mismatch: got %s, want %s", retrieved.BearerToken, account.BearerToken)
	}
	if retrieved.ClientSecret != account.ClientSecret {
		t.Errorf("ClientSecret mismatch: got %s, want %s", retrieved.ClientSecret, account.ClientSecret)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.BearerToken == account.BearerToken {
		t.Error("BearerToken should be masked")
	}
	if sanitized.ClientSecret == account.ClientSecret {
		t.Error("ClientSecret should be masked")
	}
	if sanitized.ClientID != account.ClientID {
		t.Error("ClientID should not be masked")
	}

	err = manager.Delete("work")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected empty store after delete, got %d accounts", mockStore.Count())
	}

	_, err = manager.Retrieve("work")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{}); err == nil {
		t.Error("Expected error storing account without label")
	}

	if err := manager.Store(&Account{Label: "empty"}); err == nil {
		t.Error("Expected error storing account without any credentials")
	}

	// A site login alone is enough for the browser variant
	if err := manager.Store(&Account{Label: "browser", Username: "u", Password: "p"}); err != nil {
		t.Errorf("Expected login-only account to store, got: %v", err)
	}
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("store unavailable")
	failing.RetrieveError = ErrCredentialsNotFound

	working := NewMockStore()

	manager := NewMockManagerWithStores(failing, working)

	account := &Account{Label: "fallback", BearerToken: "tok"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Store should fall through to working store: %v", err)
	}

	if !working.Exists("fallback") {
		t.Error("Expected account in the second store")
	}

	retrieved, err := manager.Retrieve("fallback")
	if err != nil {
		t.Fatalf("Retrieve should fall through to working store: %v", err)
	}
	if retrieved.BearerToken != "tok" {
		t.Errorf("BearerToken mismatch: got %s", retrieved.BearerToken)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "env_bearer")
	t.Setenv("TWITTER_CLIENT_ID", "env_client")
	t.Setenv("TWITTER_USERNAME", "")
	t.Setenv("TWITTER_PASSWORD", "")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Label != "default" {
		t.Errorf("Expected default label, got %s", account.Label)
	}
	if account.BearerToken != "env_bearer" {
		t.Errorf("BearerToken mismatch: got %s", account.BearerToken)
	}

	if err := store.Store(account); err != ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable from Store, got %v", err)
	}
	if err := store.Delete("default"); err != ErrStoreUnavailable {
		t.Errorf("Expected ErrStoreUnavailable from Delete, got %v", err)
	}
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "")
	t.Setenv("TWITTER_CLIENT_ID", "")
	t.Setenv("TWITTER_CLIENT_SECRET", "")
	t.Setenv("TWITTER_USERNAME", "")
	t.Setenv("TWITTER_PASSWORD", "")

	store := NewEnvironmentStore()
	if _, err := store.Retrieve(""); err != ErrCredentialsNotFound {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if store.Exists("") {
		t.Error("Exists should be false with no environment credentials")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("XFOLLOWERS_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Label:       "encrypted",
		BearerToken: "secret_bearer_token",
		Username:    "login_user",
		Password:    "login_pass",
	}

	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	// A fresh store over the same file must decrypt the same accounts
	reopened, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}

	retrieved, err := reopened.Retrieve("encrypted")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.BearerToken != account.BearerToken {
		t.Errorf("BearerToken mismatch after decrypt: got %s", retrieved.BearerToken)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after decrypt: got %s", retrieved.Password)
	}

	if !reopened.Exists("encrypted") {
		t.Error("Exists should be true for stored account")
	}

	if err := reopened.Delete("encrypted"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if reopened.Exists("encrypted") {
		t.Error("Exists should be false after delete")
	}
}

func TestMaskString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "********"},
		{"12345678", "********"},
		{"abcdefghijklmnop", "abcd...mnop"},
	}

	for _, tt := range tests {
		if got := maskString(tt.input); got != tt.want {
			t.Errorf("maskString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAccountCapabilities(t *testing.T) {
	api := &Account{Label: "a", BearerToken: "tok"}
	if !api.HasAPIAccess() {
		t.Error("Bearer token should grant API access")
	}
	if api.HasLogin() {
		t.Error("Account without username/password should not have login")
	}

	login := &Account{Label: "b", Username: "u", Password: "p"}
	if login.HasAPIAccess() {
		t.Error("Login-only account should not have API access")
	}
	if !login.HasLogin() {
		t.Error("Account with username and password should have login")
	}
}
