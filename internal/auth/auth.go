// Package auth guards the panel with a single admin password and a
// session/API token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"tailscale-webui/internal/settings"
)

const defaultPassword = "tailscale"

// bcryptCost is the work factor used when hashing passwords. Tests lower it.
var bcryptCost = bcrypt.DefaultCost

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Manager checks credentials persisted in the panel settings.
type Manager struct {
	settings *settings.Manager
}

// NewManager creates an auth manager backed by the provided settings manager.
func NewManager(sm *settings.Manager) *Manager {
	return &Manager{settings: sm}
}

// EnsureDefaults stores a hash of the default password and a random token
// on first run.
func (m *Manager) EnsureDefaults() error {
	s, err := m.settings.Get()
	if err != nil {
		return err
	}
	if s.AuthPasswordHash != "" && s.AuthToken != "" {
		return nil
	}
	_, err = m.settings.Update(func(s *settings.Settings) error {
		if s.AuthPasswordHash == "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcryptCost)
			if err != nil {
				return err
			}
			s.AuthPasswordHash = string(hash)
		}
		if s.AuthToken == "" {
			token, err := generateToken()
			if err != nil {
				return err
			}
			s.AuthToken = token
		}
		return nil
	})
	return err
}

// CheckPassword reports whether plain matches the stored hash, or the
// default password when none is stored yet.
func (m *Manager) CheckPassword(plain string) bool {
	s, err := m.settings.Get()
	if err != nil {
		return false
	}
	if s.AuthPasswordHash == "" {
		return subtle.ConstantTimeCompare([]byte(plain), []byte(defaultPassword)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(s.AuthPasswordHash), []byte(plain)) == nil
}

// ChangePassword replaces the password after verifying the current one.
func (m *Manager) ChangePassword(current, next string) error {
	if !m.CheckPassword(current) {
		return ErrWrongPassword
	}
	return m.SetPassword(next)
}

// SetPassword hashes plain and persists the new hash.
func (m *Manager) SetPassword(plain string) error {
	if plain == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return err
	}
	_, err = m.settings.Update(func(s *settings.Settings) error {
		s.AuthPasswordHash = string(hash)
		return nil
	})
	return err
}

// ValidateToken compares token with the stored one in constant time.
func (m *Manager) ValidateToken(token string) bool {
	if token == "" {
		return false
	}
	s, err := m.settings.Get()
	if err != nil || s.AuthToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.AuthToken)) == 1
}

// GetToken returns the current API / session token.
func (m *Manager) GetToken() (string, error) {
	s, err := m.settings.Get()
	if err != nil {
		return "", err
	}
	return s.AuthToken, nil
}

// RegenerateToken replaces the token, which signs out every session.
func (m *Manager) RegenerateToken() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if _, err := m.settings.Update(func(s *settings.Settings) error {
		s.AuthToken = token
		return nil
	}); err != nil {
		return "", err
	}
	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
