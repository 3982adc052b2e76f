// Package auth resolves the API credential used by the lead-search client.
//
// The credential is read, never written, by the engine: commands such as
// "prospect login" store it through a Store and every request reads it again
// through a Provider, so a logout takes effect immediately.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rubiojr/prospect/pkg/config"
)

// ErrNoCredential is returned when no token is available.
var ErrNoCredential = errors.New("no credential available")

// EnvVar is read by the env provider.
const EnvVar = "PROSPECT_TOKEN"

// Provider returns the current API token or ErrNoCredential.
type Provider interface {
	Token() (string, error)
}

// Store is a Provider that can also persist and forget the token.
type Store interface {
	Provider
	Save(token string) error
	Delete() error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (string, error)

func (f ProviderFunc) Token() (string, error) { return f() }

// Static always returns token, or ErrNoCredential when token is empty.
func Static(token string) Provider {
	return ProviderFunc(func() (string, error) {
		if strings.TrimSpace(token) == "" {
			return "", ErrNoCredential
		}
		return token, nil
	})
}

// Env reads the token from the PROSPECT_TOKEN environment variable.
func Env() Provider {
	return ProviderFunc(func() (string, error) {
		tok := strings.TrimSpace(os.Getenv(EnvVar))
		if tok == "" {
			return "", ErrNoCredential
		}
		return tok, nil
	})
}

// NewStore returns the credential store selected in the configuration. The
// env source is read-only: Save and Delete fail.
func NewStore(cfg config.AuthConfig, account string) (Store, error) {
	switch cfg.Source {
	case config.AuthKeyring, "":
		return NewKeyringStore(account), nil
	case config.AuthFile:
		return NewFileStore(cfg.File), nil
	case config.AuthEnv:
		return envStore{Env()}, nil
	}
	return nil, fmt.Errorf("unknown credential source %q", cfg.Source)
}

type envStore struct {
	Provider
}

func (envStore) Save(string) error {
	return fmt.Errorf("credential source env is read-only, export %s instead", EnvVar)
}

func (envStore) Delete() error {
	return fmt.Errorf("credential source env is read-only, unset %s instead", EnvVar)
}
