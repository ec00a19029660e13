package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
)

const (
	localLoginPath  = "/api/login/Basic"
	localStatusPath = "/api/system_status"
	localVitalsPath = "/api/devices/vitals"
)

// LocalClient talks to the Powerwall gateway on the local network. The
// gateway requires a cookie session obtained from the customer login
// endpoint and serves a self-signed certificate.
type LocalClient struct {
	client   *http.Client
	baseURL  string
	email    string
	password string

	mu       sync.Mutex
	loggedIn bool
}

func newLocalClient(host, email, password string) *LocalClient {
	return &LocalClient{
		client:   newHTTPClient(true),
		baseURL:  "https://" + host,
		email:    email,
		password: password,
	}
}

func (c *LocalClient) FetchStatus(ctx context.Context) (State, error) {
	return c.getJSON(ctx, localStatusPath)
}

func (c *LocalClient) FetchVitals(ctx context.Context) (State, error) {
	return c.getJSON(ctx, localVitalsPath)
}

// login establishes the gateway session cookie. The gateway accepts the
// fixed "customer" username together with the installation password.
func (c *LocalClient) login(ctx context.Context) error {
	errFactory := errors.New()

	body, err := json.Marshal(map[string]interface{}{
		"username":     "customer",
		"email":        c.email,
		"password":     c.password,
		"force_sm_off": false,
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+localLoginPath, bytes.NewReader(body))
	if err != nil {
		return errFactory.Wrap(ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errFactory.Wrap(ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errFactory.WithData(ErrAuthFailed, fmt.Sprintf("login returned %d", resp.StatusCode))
	}

	logger.Debug().Str("gateway", c.baseURL).Msg("logged in to local gateway")
	c.loggedIn = true

	return nil
}

func (c *LocalClient) getJSON(ctx context.Context, path string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loggedIn {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	state, status, err := c.doGet(ctx, path)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		// Session cookie expired, for example after a gateway reboot.
		c.loggedIn = false
		if err := c.login(ctx); err != nil {
			return nil, err
		}
		state, _, err = c.doGet(ctx, path)
		return state, err
	}

	return state, err
}

func (c *LocalClient) doGet(ctx context.Context, path string) (State, int, error) {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, 0, errFactory.Wrap(ErrTransport, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, errFactory.Wrap(ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, errFactory.WithData(ErrStatusCode,
			fmt.Sprintf("GET %s returned %d", path, resp.StatusCode))
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, resp.StatusCode, errFactory.Wrap(ErrDecodeResponse, err)
	}

	return state, resp.StatusCode, nil
}
