package security

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/types"
)

// ErrEmptyUsername is returned when a configured credential has no username
var ErrEmptyUsername = errors.New("credential has empty username")

// AuthResult is the outcome of checking a username/password pair
type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthUnknownUser
	AuthIncorrectPassword
)

// String returns the metric label for the result
func (r AuthResult) String() string {
	switch r {
	case AuthOK:
		return "ok"
	case AuthUnknownUser:
		return "unknown_user"
	case AuthIncorrectPassword:
		return "incorrect_password"
	default:
		return "unknown"
	}
}

// CredentialStore maps usernames to canonical password hashes.
// It is read-only once built and safe for concurrent use.
type CredentialStore struct {
	hashes map[string]string
}

// BuildCredentialStore hashes every plaintext password and returns the store.
// The first occurrence of a username wins; later duplicates are skipped.
func BuildCredentialStore(creds []types.Credential) (*CredentialStore, error) {
	logger := log.WithComponent("security")
	hashes := make(map[string]string, len(creds))

	for i, cred := range creds {
		if cred.Username == "" {
			return nil, fmt.Errorf("credential %d: %w", i, ErrEmptyUsername)
		}

		if _, exists := hashes[cred.Username]; exists {
			logger.Warn().
				Str("username", cred.Username).
				Msg("Duplicate username in configuration, keeping the first entry")
			continue
		}

		if IsCanonicalHash(cred.Password) {
			hashes[cred.Username] = cred.Password
			continue
		}

		hash, err := HashPassword(cred.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %q: %w", cred.Username, err)
		}
		hashes[cred.Username] = hash
		metrics.PasswordMigrationsTotal.Inc()

		logger.Warn().
			Str("username", cred.Username).
			Str("hash", hash).
			Msg("Plaintext password found in configuration, replace it with the hash")
	}

	metrics.CredentialsTotal.Set(float64(len(hashes)))

	return &CredentialStore{hashes: hashes}, nil
}

// Lookup returns the canonical hash stored for username
func (s *CredentialStore) Lookup(username string) (string, bool) {
	hash, ok := s.hashes[username]
	return hash, ok
}

// Len returns the number of users in the store
func (s *CredentialStore) Len() int {
	return len(s.hashes)
}

// Usernames returns the stored usernames in sorted order
func (s *CredentialStore) Usernames() []string {
	names := make([]string, 0, len(s.hashes))
	for name := range s.hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Authenticate checks password against the hash stored for username
func (s *CredentialStore) Authenticate(username, password string) (AuthResult, error) {
	hash, ok := s.hashes[username]
	if !ok {
		return AuthUnknownUser, nil
	}

	match, err := VerifyPassword(password, hash)
	if err != nil {
		return AuthIncorrectPassword, fmt.Errorf("user %q: %w", username, err)
	}
	if !match {
		return AuthIncorrectPassword, nil
	}
	return AuthOK, nil
}
