package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
)

// Session is the signed-in state of one user. A nil *Session means signed out.
type Session struct {
	Token string          `json:"token"`
	User  auth.PublicUser `json:"user"`
}

// SessionStore persists a session in a JSON file on the local device.
type SessionStore struct {
	Path string
}

// Load returns the saved session, or nil when nobody is signed in.
func (s SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.Path, err)
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

// Save writes session with owner-only permissions.
func (s SessionStore) Save(session *Session) error {
	if session == nil {
		return s.Clear()
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear signs out by removing the file. Clearing twice is fine.
func (s SessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
