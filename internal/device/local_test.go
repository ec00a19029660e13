package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
)

func init() {
	logger.Init(false, false, true)
}

const testSessionCookie = "AuthCookie"

// fakeGateway mimics the local Powerwall gateway: a login endpoint that
// hands out a session cookie and data endpoints that require it.
type fakeGateway struct {
	srv *httptest.Server

	loginCalls  int
	statusCalls int
	session     string
	password    string
}

func newFakeGateway(t *testing.T, password string) *fakeGateway {
	t.Helper()

	g := &fakeGateway{password: password, session: "session-1"}

	mux := http.NewServeMux()
	mux.HandleFunc(localLoginPath, g.handleLogin)
	mux.HandleFunc(localStatusPath, g.requireSession(func(w http.ResponseWriter, _ *http.Request) {
		g.statusCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{"soe": 82.5, "grid_status": "SystemGridConnected"})
	}))
	mux.HandleFunc(localVitalsPath, g.requireSession(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"STSTSM--1": map[string]interface{}{"alerts": []interface{}{}}})
	}))

	g.srv = httptest.NewTLSServer(mux)
	t.Cleanup(g.srv.Close)

	return g
}

func (g *fakeGateway) host() string {
	return strings.TrimPrefix(g.srv.URL, "https://")
}

func (g *fakeGateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	g.loginCalls++

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body["username"] != "customer" || body["password"] != g.password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: testSessionCookie, Value: g.session})
	json.NewEncoder(w).Encode(map[string]interface{}{"token": "t"})
}

func (g *fakeGateway) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(testSessionCookie)
		if err != nil || cookie.Value != g.session {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// expireSession invalidates any cookie handed out so far.
func (g *fakeGateway) expireSession() {
	g.session += "x"
}

func TestLocalClientFetchStatus(t *testing.T) {
	gw := newFakeGateway(t, "hunter2")
	c := newLocalClient(gw.host(), "owner@example.com", "hunter2")

	state, err := c.FetchStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 82.5, state["soe"])
	assert.Equal(t, 1, gw.loginCalls, "login happens lazily on first fetch")

	// Subsequent fetches reuse the session cookie.
	_, err = c.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gw.loginCalls)
	assert.Equal(t, 2, gw.statusCalls)
}

func TestLocalClientFetchVitals(t *testing.T) {
	gw := newFakeGateway(t, "hunter2")
	c := newLocalClient(gw.host(), "owner@example.com", "hunter2")

	state, err := c.FetchVitals(context.Background())
	require.NoError(t, err)
	assert.Contains(t, state, "STSTSM--1")
}

func TestLocalClientReloginOnExpiredSession(t *testing.T) {
	gw := newFakeGateway(t, "hunter2")
	c := newLocalClient(gw.host(), "owner@example.com", "hunter2")

	_, err := c.FetchStatus(context.Background())
	require.NoError(t, err)

	gw.expireSession()

	state, err := c.FetchStatus(context.Background())
	require.NoError(t, err, "expired session is re-established transparently")
	assert.Equal(t, 82.5, state["soe"])
	assert.Equal(t, 2, gw.loginCalls)
}

func TestLocalClientBadPassword(t *testing.T) {
	gw := newFakeGateway(t, "hunter2")
	c := newLocalClient(gw.host(), "owner@example.com", "wrong")

	_, err := c.FetchStatus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrAuthFailed))
	assert.Zero(t, gw.statusCalls)
}

func TestLocalClientGatewayError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == localLoginPath {
			http.SetCookie(w, &http.Cookie{Name: testSessionCookie, Value: "s"})
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newLocalClient(strings.TrimPrefix(srv.URL, "https://"), "", "p")

	_, err := c.FetchStatus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrStatusCode))
}
