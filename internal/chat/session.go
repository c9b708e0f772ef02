package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/repomind/repomind/internal/apierr"
	"github.com/repomind/repomind/internal/gateway"
	"github.com/repomind/repomind/internal/state"
	"github.com/repomind/repomind/pkg/models"
)

// Greeting opens every conversation transcript
const Greeting = "Hi! I'm RepoMind AI. Ask me anything about your codebase, " +
	"and I'll provide context-aware answers using RAG."

// ErrEmptyMessage is returned for turns that are empty after trimming
var ErrEmptyMessage = errors.New("message is empty")

// ErrStaleTurn is returned when a response arrives after the
// conversation it belonged to was reset; the result is discarded and
// the transcript is left untouched.
var ErrStaleTurn = errors.New("conversation changed while turn was in flight")

// Session manages one chat conversation: transcript, turn-taking, and
// the single-outstanding-request rule. The transcript is the single
// linear record of the interaction; failed turns are absorbed into it
// as assistant-role notices, while LastError carries the structured
// classification for callers that need to react programmatically.
type Session struct {
	store *state.Store
	gw    *gateway.Client

	// gate holds the single in-flight slot; transcript mutations only
	// happen while it is held, so turns are strictly serialized.
	gate chan struct{}

	mu       sync.Mutex // guards the fields below against concurrent readers
	inFlight bool
	messages []models.Message
	lastErr  *apierr.Error
}

// NewSession creates a session bound to the identity store and gateway
func NewSession(store *state.Store, gw *gateway.Client) *Session {
	s := &Session{
		store: store,
		gw:    gw,
		gate:  make(chan struct{}, 1),
	}
	s.messages = append(s.messages, models.Message{
		Role:    models.RoleAssistant,
		Content: Greeting,
	})
	return s
}

// Messages returns a copy of the transcript in conversation order
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastError returns the classification of the most recent failed turn,
// or nil when the last turn succeeded. This is the structured channel
// for distinguishing true answers from error notices; the transcript
// itself does not make that distinction.
func (s *Session) LastError() *apierr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SendTurn sends one conversation turn and returns the assistant's
// answer. At most one turn may be outstanding: a second call while one
// is pending is rejected with ConcurrentOperationRejected and leaves
// the transcript and the network untouched. A turn is only attempted
// when a repository context is present; callers seeing MissingContext
// must send the user to repository selection.
//
// The user message is echoed into the transcript before the request is
// issued. On failure the classified error text is appended as an
// assistant-role notice, so the transcript stays a complete record of
// the exchange, and the same classification is returned to the caller.
func (s *Session) SendTurn(ctx context.Context, userText string) (string, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return "", ErrEmptyMessage
	}

	repoCtx, err := s.store.GetRepositoryContext()
	if err != nil {
		return "", err
	}
	if repoCtx == nil {
		return "", apierr.ErrMissingContext
	}

	// Claim the single in-flight slot without blocking
	select {
	case s.gate <- struct{}{}:
	default:
		return "", apierr.ErrConcurrentOperation
	}
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		<-s.gate
	}()
	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()

	conversationID, err := s.store.GetOrCreateConversationID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.messages = append(s.messages, models.Message{
		Role:    models.RoleUser,
		Content: text,
	})
	s.mu.Unlock()

	req := models.ChatRequest{
		Message:        text,
		RepoID:         repoCtx.RepositoryID,
		ConversationID: conversationID,
	}

	var resp models.ChatResponse
	callErr := s.gw.Do(ctx, http.MethodPost, "/api/chat", req, &resp)

	// Discard resolutions that arrive after the conversation they
	// belong to was torn down; the transcript must not be corrupted
	// by a stale in-flight turn.
	if current := s.store.ConversationID(); current != conversationID {
		log.Debug().Str("conversation_id", conversationID).Msg("discarding stale turn result")
		return "", ErrStaleTurn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if callErr != nil {
		classified := apierr.Classify(callErr)
		s.lastErr = classified
		s.messages = append(s.messages, models.Message{
			Role:    models.RoleAssistant,
			Content: "Error: " + classified.Message,
		})
		return "", classified
	}

	s.lastErr = nil
	s.messages = append(s.messages, models.Message{
		Role:    models.RoleAssistant,
		Content: resp.Answer,
	})
	return resp.Answer, nil
}

// InFlight reports whether a turn is currently outstanding
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
