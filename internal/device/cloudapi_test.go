package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

func TestBearerAPIUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{
				"percentage_charged": 64.2,
				"island_status":      "on_grid",
			},
		})
	}))
	defer srv.Close()

	api := bearerAPI{client: newHTTPClient(false), baseURL: srv.URL, token: "tok"}

	state, err := api.getJSON(context.Background(), "/api/1/energy_sites/1/live_status")
	require.NoError(t, err)

	assert.Equal(t, 64.2, state["percentage_charged"])
	assert.Equal(t, "on_grid", state["island_status"])
	assert.NotContains(t, state, "response")
}

func TestBearerAPIPassesThroughFlatBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"soe": 50.0})
	}))
	defer srv.Close()

	api := bearerAPI{client: newHTTPClient(false), baseURL: srv.URL, token: "tok"}

	state, err := api.getJSON(context.Background(), "/anything")
	require.NoError(t, err)
	assert.Equal(t, 50.0, state["soe"])
}

func TestBearerAPIAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	api := bearerAPI{client: newHTTPClient(false), baseURL: srv.URL, token: "expired"}

	_, err := api.getJSON(context.Background(), "/anything")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrAuthFailed))
}

func TestBearerAPIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := bearerAPI{client: newHTTPClient(false), baseURL: srv.URL, token: "tok"}

	_, err := api.getJSON(context.Background(), "/anything")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrStatusCode))
}

func TestBearerAPIDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	api := bearerAPI{client: newHTTPClient(false), baseURL: srv.URL, token: "tok"}

	_, err := api.getJSON(context.Background(), "/anything")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrDecodeResponse))
}

func TestNewSelectsTransport(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.ErrorCode
	}{
		{name: "local", opts: Options{Mode: ModeLocal, Host: "h", Password: "p"}},
		{name: "fleet", opts: Options{Mode: ModeFleet, Token: "t", SiteID: "1"}},
		{name: "cloud", opts: Options{Mode: ModeCloud, Token: "t", SiteID: "1"}},
		{name: "local missing password", opts: Options{Mode: ModeLocal, Host: "h"}, wantErr: ErrMissingCredentials},
		{name: "fleet missing token", opts: Options{Mode: ModeFleet, SiteID: "1"}, wantErr: ErrMissingCredentials},
		{name: "unknown mode", opts: Options{Mode: Mode("smoke-signal")}, wantErr: ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
