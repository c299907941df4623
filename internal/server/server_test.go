package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nighthawkeye449/bang-server-go/internal/config"
	"github.com/Nighthawkeye449/bang-server-go/internal/lobby"
)

func newTestServer(t *testing.T) (*Server, *lobby.Registry) {
	t.Helper()
	reg := lobby.NewRegistry(zap.NewNop(), nil)
	cfg := config.ServerConfig{Address: ":0"}
	return New(cfg, reg, zap.NewNop()), reg
}

func TestCreateLobby(t *testing.T) {
	s, reg := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lobbies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	code := body["lobby"]
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), code)
	assert.True(t, reg.Exists(code))
}

func TestCreateLobbyRequiresPost(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobbies", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWSRejectsMissingParams(t *testing.T) {
	s, reg := newTestServer(t)

	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?lobby=AB12", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?lobby=AB12&player=amy", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown lobby")

	require.NoError(t, reg.Create("AB12"))
	rec = httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?lobby=AB12&player=amy", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not a websocket handshake")
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
