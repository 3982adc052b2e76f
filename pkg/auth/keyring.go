package auth

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups prospect secrets in the OS keychain.
const KeyringService = "prospect"

// KeyringStore keeps the token in the OS keychain under one account name.
type KeyringStore struct {
	account string
}

// NewKeyringStore returns a store for account, typically the API host.
func NewKeyringStore(account string) *KeyringStore {
	if strings.TrimSpace(account) == "" {
		account = "default"
	}
	return &KeyringStore{account: account}
}

func (s *KeyringStore) Token() (string, error) {
	tok, err := keyring.Get(KeyringService, s.account)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(tok) == "") {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (s *KeyringStore) Save(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, s.account, token)
}

func (s *KeyringStore) Delete() error {
	err := keyring.Delete(KeyringService, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
