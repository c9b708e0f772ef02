package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomind/repomind/internal/apierr"
	"github.com/repomind/repomind/internal/config"
	"github.com/repomind/repomind/internal/gateway"
	"github.com/repomind/repomind/internal/state"
	"github.com/repomind/repomind/pkg/models"
)

func testSession(t *testing.T, baseURL string, selectRepo bool) (*Session, *state.Store) {
	t.Helper()

	store, err := state.NewStore(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	if selectRepo {
		require.NoError(t, store.SetRepositoryContext(models.RepositoryContext{
			RepositoryID:   42,
			RepositoryName: "acme/auth-service",
		}))
	}

	cfg := &config.Config{}
	cfg.Server.BaseURL = baseURL
	cfg.Server.TimeoutSeconds = 5
	cfg.Auth.CookieName = "JSESSIONID"
	cfg.Auth.SessionToken = "test-session-token"

	return NewSession(store, gateway.NewClient(cfg)), store
}

func TestTranscriptStartsWithGreeting(t *testing.T) {
	session, _ := testSession(t, "http://127.0.0.1:0", true)

	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Content)
}

func TestSendTurnPayloadAndAnswer(t *testing.T) {
	var got models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"answer":"It validates JWTs."}`))
	}))
	defer srv.Close()

	session, store := testSession(t, srv.URL, true)
	conversationID, err := store.GetOrCreateConversationID()
	require.NoError(t, err)

	answer, err := session.SendTurn(context.Background(), "What does the auth module do?")
	require.NoError(t, err)
	assert.Equal(t, "It validates JWTs.", answer)

	assert.Equal(t, "What does the auth module do?", got.Message)
	assert.Equal(t, int64(42), got.RepoID)
	assert.Equal(t, conversationID, got.ConversationID)

	// Exactly two new entries, in order, after the greeting
	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, "What does the auth module do?", msgs[1].Content)
	assert.Equal(t, models.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "It validates JWTs.", msgs[2].Content)
	assert.Nil(t, session.LastError())
}

func TestSendTurnUsesStableConversationID(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.ConversationID)
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	for _, q := range []string{"first", "second", "third"} {
		_, err := session.SendTurn(context.Background(), q)
		require.NoError(t, err)
	}

	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
}

func TestSendTurnTrimsAndRejectsEmpty(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	_, err := session.SendTurn(context.Background(), "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, calls.Load())
	assert.Len(t, session.Messages(), 1, "rejected turn must not touch the transcript")
}

func TestSendTurnWithoutRepositoryContext(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, false)

	_, err := session.SendTurn(context.Background(), "hello")

	var classified *apierr.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, apierr.MissingContext, classified.Kind)
	assert.Zero(t, calls.Load(), "missing context must not issue any request")
	assert.Len(t, session.Messages(), 1)
}

func TestSendTurnAbsorbsFailureIntoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"model overloaded"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	_, err := session.SendTurn(context.Background(), "hello")

	var classified *apierr.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, apierr.ServerRejected, classified.Kind)
	assert.Equal(t, "model overloaded", classified.Message)

	// The failure is part of the transcript, as an assistant notice
	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, models.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "Error: model overloaded", msgs[2].Content)

	// And the structured classification is available at call time
	require.NotNil(t, session.LastError())
	assert.Equal(t, apierr.ServerRejected, session.LastError().Kind)
}

func TestSendTurnUnauthenticatedNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	_, err := session.SendTurn(context.Background(), "hello")
	require.Error(t, err)

	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Error: Authentication required. Please login with GitHub.", msgs[2].Content)
}

func TestSendTurnRejectsConcurrentTurn(t *testing.T) {
	var calls atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-release
		w.Write([]byte(`{"answer":"slow answer"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstAnswer string
	var firstErr error
	go func() {
		defer wg.Done()
		firstAnswer, firstErr = session.SendTurn(context.Background(), "first question")
	}()

	<-entered // first turn is on the wire
	assert.True(t, session.InFlight())

	_, err := session.SendTurn(context.Background(), "second question")
	var classified *apierr.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, apierr.ConcurrentOperationRejected, classified.Kind)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.False(t, session.InFlight())
	assert.Equal(t, "slow answer", firstAnswer)
	assert.Equal(t, int64(1), calls.Load(), "the rejected turn must not reach the network")

	// Only the first turn's pair landed in the transcript
	msgs := session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first question", msgs[1].Content)
}

func TestAccessorsSafeWhileTurnsAreInFlight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer srv.Close()

	session, _ := testSession(t, srv.URL, true)

	const turns = 25
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < turns; i++ {
			_, err := session.SendTurn(context.Background(), "question")
			assert.NoError(t, err)
		}
	}()

	// Poll the accessors while turns are being processed; under -race
	// this catches any unsynchronized transcript access.
	for polling := true; polling; {
		select {
		case <-done:
			polling = false
		default:
			_ = session.Messages()
			_ = session.LastError()
			_ = session.InFlight()
		}
	}

	msgs := session.Messages()
	assert.Len(t, msgs, 1+2*turns)
	assert.Nil(t, session.LastError())
}

func TestSendTurnDiscardsStaleResolution(t *testing.T) {
	var store *state.Store
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The session is torn down while the turn is in flight
		require.NoError(t, store.ResetConversation())
		w.Write([]byte(`{"answer":"too late"}`))
	}))
	defer srv.Close()

	session, s := testSession(t, srv.URL, true)
	store = s

	_, err := session.SendTurn(context.Background(), "hello")
	require.ErrorIs(t, err, ErrStaleTurn)

	// The stale answer must not be appended
	msgs := session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
}
