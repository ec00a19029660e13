package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

// bearerAPI is the shared HTTP plumbing for the token-authenticated
// Tesla APIs (fleet and cloud). Both wrap payloads in a "response"
// envelope.
type bearerAPI struct {
	client  *http.Client
	baseURL string
	token   string
}

func (a *bearerAPI) getJSON(ctx context.Context, path string) (State, error) {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, http.NoBody)
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errFactory.WithData(ErrAuthFailed, fmt.Sprintf("GET %s returned %d", path, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errFactory.WithData(ErrStatusCode, fmt.Sprintf("GET %s returned %d", path, resp.StatusCode))
	}

	var body State
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errFactory.Wrap(ErrDecodeResponse, err)
	}

	// Unwrap the API envelope when present.
	if inner, ok := body["response"].(map[string]interface{}); ok {
		return inner, nil
	}

	return body, nil
}

// FleetClient reads energy site state through the Tesla Fleet API.
type FleetClient struct {
	api    bearerAPI
	siteID string
}

func newFleetClient(token, siteID string) *FleetClient {
	return &FleetClient{
		api: bearerAPI{
			client:  newHTTPClient(false),
			baseURL: "https://fleet-api.prd.na.vn.cloud.tesla.com",
			token:   token,
		},
		siteID: siteID,
	}
}

func (c *FleetClient) FetchStatus(ctx context.Context) (State, error) {
	return c.api.getJSON(ctx, "/api/1/energy_sites/"+c.siteID+"/live_status")
}

func (c *FleetClient) FetchVitals(ctx context.Context) (State, error) {
	return c.api.getJSON(ctx, "/api/1/energy_sites/"+c.siteID+"/site_info")
}

// CloudClient reads energy site state through the legacy owner API.
type CloudClient struct {
	api    bearerAPI
	siteID string
}

func newCloudClient(token, siteID string) *CloudClient {
	return &CloudClient{
		api: bearerAPI{
			client:  newHTTPClient(false),
			baseURL: "https://owner-api.teslamotors.com",
			token:   token,
		},
		siteID: siteID,
	}
}

func (c *CloudClient) FetchStatus(ctx context.Context) (State, error) {
	return c.api.getJSON(ctx, "/api/1/energy_sites/"+c.siteID+"/live_status")
}

func (c *CloudClient) FetchVitals(ctx context.Context) (State, error) {
	return c.api.getJSON(ctx, "/api/1/energy_sites/"+c.siteID+"/site_status")
}
