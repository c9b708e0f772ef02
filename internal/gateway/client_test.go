package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomind/repomind/internal/config"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{}
	cfg.Server.BaseURL = baseURL
	cfg.Server.TimeoutSeconds = 5
	cfg.Auth.CookieName = "JSESSIONID"
	cfg.Auth.SessionToken = "test-session-token"
	return NewClient(cfg)
}

func TestDoDecodesSuccess(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"It validates JWTs."}`))
	}))
	defer srv.Close()

	var out struct {
		Answer string `json:"answer"`
	}
	err := testClient(srv.URL).Do(context.Background(), http.MethodGet, "/api/thing", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "It validates JWTs.", out.Answer)
	assert.Equal(t, "test-session-token", gotCookie, "session cookie must travel with every request")
}

func TestDoTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/thing", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL + "/").Do(context.Background(), http.MethodGet, "/api/thing", nil, nil)
	require.NoError(t, err)
}

func TestDoReportsStructuredRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"repository not indexed yet"}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).Do(context.Background(), http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnprocessableEntity, te.StatusCode)
	assert.Equal(t, "repository not indexed yet", te.ServerMessage)
	assert.False(t, te.NoResponse())
}

func TestDoReportsRejectionWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(srv.URL).Do(context.Background(), http.MethodGet, "/api/repos", nil, nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Empty(t, te.ServerMessage)
}

func TestDoReportsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	err := testClient(srv.URL).Do(context.Background(), http.MethodGet, "/api/repos", nil, nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te), "every failure must be a TransportError")
	assert.True(t, te.NoResponse())
	assert.Zero(t, te.StatusCode)
}

func TestDoReportsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer": not-json`))
	}))
	defer srv.Close()

	var out struct {
		Answer string `json:"answer"`
	}
	err := testClient(srv.URL).Do(context.Background(), http.MethodGet, "/api/thing", nil, &out)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusOK, te.StatusCode)
	assert.Error(t, te.Err)
	assert.False(t, te.NoResponse())
}
