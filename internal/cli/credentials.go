package cli

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "moodtrail"

// ErrNotLoggedIn is returned when no token is stored for the configured user.
var ErrNotLoggedIn = errors.New("not logged in: run `moodtrail login` first")

// Credentials stores API tokens outside the config file.
type Credentials interface {
	Token(server, userID string) (string, error)
	SaveToken(server, userID, token string) error
	DeleteToken(server, userID string) error
}

// KeyringCredentials keeps tokens in the OS keyring.
type KeyringCredentials struct {
	Service string
}

// NewKeyringCredentials returns credentials stored under the moodtrail service.
func NewKeyringCredentials() *KeyringCredentials {
	return &KeyringCredentials{Service: keyringService}
}

func account(server, userID string) string {
	return userID + "@" + server
}

// Token returns the stored token, or ErrNotLoggedIn.
func (k *KeyringCredentials) Token(server, userID string) (string, error) {
	if userID == "" {
		return "", ErrNotLoggedIn
	}
	token, err := keyring.Get(k.Service, account(server, userID))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token from keyring: %w", err)
	}
	return token, nil
}

// SaveToken stores token for the user on server.
func (k *KeyringCredentials) SaveToken(server, userID, token string) error {
	if err := keyring.Set(k.Service, account(server, userID), token); err != nil {
		return fmt.Errorf("store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token. Deleting a missing token is not an error.
func (k *KeyringCredentials) DeleteToken(server, userID string) error {
	err := keyring.Delete(k.Service, account(server, userID))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token from keyring: %w", err)
	}
	return nil
}
