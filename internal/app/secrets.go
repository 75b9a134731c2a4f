package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/zalando/go-keyring"
)

// LookupSecret reads the web source secret stored for user.
func LookupSecret(user string) (string, error) {
	secret, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrSecretRead, err)
	}
	return secret, nil
}

// StoreSecret saves the web source secret for user in the OS keyring.
// Surrounding whitespace, including the trailing newline of piped input, is dropped.
func StoreSecret(user, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New(config.ErrSecretEmpty)
	}
	if err := keyring.Set(config.KeyringService, user, secret); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSecretStore, err)
	}
	return nil
}

// DeleteSecret removes the secret stored for user.
func DeleteSecret(user string) error {
	if err := keyring.Delete(config.KeyringService, user); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSecretDelete, err)
	}
	return nil
}
