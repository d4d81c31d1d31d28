package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "tush00nka/filestash/docs"
	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/handler"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/service"
	"tush00nka/filestash/internal/ws"
)

// noSessions rejects every token.
type noSessions struct {
	service.UserService
}

func (noSessions) CurrentUser(context.Context, string) (*model.User, error) {
	return nil, apperr.ErrUnauthenticated
}

func newTestServer(logs *bytes.Buffer) *Server {
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	users := noSessions{}
	hub := ws.NewHub()

	return NewServer(users, Handlers{
		Users:  handler.NewUserHandler(users, time.Hour, false),
		Files:  handler.NewFileHandler(nil, 1<<20),
		Search: handler.NewSearchHandler(nil, hub, ws.NewUpgrader(nil, true), 0),
	}, hub, []string{"http://example.com"}, logger)
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer(&bytes.Buffer{})

	req := httptest.NewRequest(http.MethodOptions, "/api/files", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	server := newTestServer(&bytes.Buffer{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPingIsLogged(t *testing.T) {
	logs := &bytes.Buffer{}
	server := newTestServer(logs)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Pong"}`, rr.Body.String())
	assert.Contains(t, logs.String(), `"path":"/ping"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestPrivateRoutesNeedSession(t *testing.T) {
	server := newTestServer(&bytes.Buffer{})

	for _, target := range []string{"/api/files", "/api/files/usage", "/api/users/me", "/api/search/ws"} {
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestSwaggerDoc(t *testing.T) {
	server := newTestServer(&bytes.Buffer{})

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title": "Filestash"`)
	assert.Contains(t, rr.Body.String(), "/files/{id}/users")
}
