package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/repomind/repomind/pkg/models"
)

const (
	repositoryFile   = "repository.json"
	conversationFile = "conversation_id"
)

// Store holds the client-side identity state: the selected repository
// (durable, survives restarts) and the active conversation id
// (volatile, scoped to the current login session). It is constructed
// once and passed to whoever needs it; there are no package globals.
type Store struct {
	stateDir   string
	sessionDir string

	mu             sync.Mutex
	conversationID string
}

// NewStore creates a store backed by the given directories. stateDir
// is the durable location, sessionDir the volatile one.
func NewStore(stateDir, sessionDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	return &Store{stateDir: stateDir, sessionDir: sessionDir}, nil
}

// GetRepositoryContext returns the selected repository, or nil when no
// repository has been selected yet.
func (s *Store) GetRepositoryContext() (*models.RepositoryContext, error) {
	raw, err := os.ReadFile(filepath.Join(s.stateDir, repositoryFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading repository context: %w", err)
	}

	var ctx models.RepositoryContext
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("decoding repository context: %w", err)
	}

	return &ctx, nil
}

// SetRepositoryContext replaces the selected repository
func (s *Store) SetRepositoryContext(ctx models.RepositoryContext) error {
	raw, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding repository context: %w", err)
	}

	path := filepath.Join(s.stateDir, repositoryFile)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("writing repository context: %w", err)
	}

	log.Debug().Int64("repo_id", ctx.RepositoryID).
		Str("repo_name", ctx.RepositoryName).Msg("repository context updated")
	return nil
}

// GetOrCreateConversationID returns the active conversation id,
// generating and persisting a fresh UUID on first use. The id is
// immutable for the lifetime of the session entry: every later call
// returns the identical value until ResetConversation removes it.
func (s *Store) GetOrCreateConversationID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversationID != "" {
		return s.conversationID, nil
	}

	path := filepath.Join(s.sessionDir, conversationFile)
	raw, err := os.ReadFile(path)
	if err == nil {
		stored := strings.TrimSpace(string(raw))
		if _, parseErr := uuid.Parse(stored); parseErr == nil {
			s.conversationID = stored
			return stored, nil
		}
		// Unreadable entry: fall through and replace it
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading conversation id: %w", err)
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0600); err != nil {
		return "", fmt.Errorf("writing conversation id: %w", err)
	}

	s.conversationID = id
	log.Debug().Str("conversation_id", id).Msg("started new conversation session")
	return id, nil
}

// ConversationID returns the current conversation id without creating
// one. Empty when no session entry exists.
func (s *Store) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversationID != "" {
		return s.conversationID
	}

	raw, err := os.ReadFile(filepath.Join(s.sessionDir, conversationFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// ResetConversation removes the session's conversation id. The next
// GetOrCreateConversationID call starts a fresh conversation.
func (s *Store) ResetConversation() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = ""
	err := os.Remove(filepath.Join(s.sessionDir, conversationFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing conversation id: %w", err)
	}
	return nil
}
