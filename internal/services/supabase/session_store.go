package supabase

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/amaumene/cinematch/internal/models"
)

// ErrNoSession is returned by a SessionStore holding no session
var ErrNoSession = errors.New("session file not found")

// SessionStore defines the interface for persisting the auth session
type SessionStore interface {
	LoadSession() (*models.AuthSession, error)
	SaveSession(session *models.AuthSession) error
	ClearSession() error
}

// FileSessionStore implements SessionStore using a JSON file
type FileSessionStore struct {
	filepath string
}

// NewFileSessionStore creates a new file-based session store
func NewFileSessionStore(filepath string) *FileSessionStore {
	return &FileSessionStore{filepath: filepath}
}

// LoadSession retrieves the session from the file
func (s *FileSessionStore) LoadSession() (*models.AuthSession, error) {
	data, err := os.ReadFile(s.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var session models.AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return &session, nil
}

// SaveSession saves the session to the file, readable by the owner only
func (s *FileSessionStore) SaveSession(session *models.AuthSession) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filepath, data, 0600)
}

// ClearSession removes the session file
func (s *FileSessionStore) ClearSession() error {
	if err := os.Remove(s.filepath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemorySessionStore keeps the session in memory only
type MemorySessionStore struct {
	mu      sync.Mutex
	session *models.AuthSession
}

func (s *MemorySessionStore) LoadSession() (*models.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ErrNoSession
	}
	copied := *s.session
	return &copied, nil
}

func (s *MemorySessionStore) SaveSession(session *models.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.session = &copied
	return nil
}

func (s *MemorySessionStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
