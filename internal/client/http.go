package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the daemon answers 401, i.e. the
// request needs a confirmed CMA login first.
var ErrUnauthorized = errors.New("cma login required")

// HTTPClient makes REST calls to the CMA helper daemon.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:5000").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Status fetches /cma/status.
func (c *HTTPClient) Status() (*StatusResponse, error) {
	var s StatusResponse
	if err := c.get("/cma/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Profiles fetches /cma/profiles. A well-formed error response is
// surfaced as an error carrying the backend message.
func (c *HTTPClient) Profiles() ([]Profile, error) {
	var out ProfilesResponse
	if err := c.get("/cma/profiles", &out); err != nil {
		return nil, err
	}
	if out.Status != "ok" {
		if out.Message != "" {
			return nil, errors.New(out.Message)
		}
		return nil, errors.New("profile list request failed")
	}
	return out.Profiles, nil
}

// Login sends POST /cma/login for the given profile.
func (c *HTTPClient) Login(profile string) (*LoginResponse, error) {
	body := map[string]string{"profile": profile}
	var out LoginResponse
	if err := c.post("/cma/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout sends POST /cma/logout. Only the HTTP status matters.
func (c *HTTPClient) Logout() error {
	return c.post("/cma/logout", nil, nil)
}

// StaticRouteInit fetches /api/network/static-route/init. Returns
// ErrUnauthorized when the daemon has no confirmed CMA session.
func (c *HTTPClient) StaticRouteInit() (*StaticRouteInit, error) {
	var out StaticRouteInit
	if err := c.get("/api/network/static-route/init", &out); err != nil {
		return nil, err
	}
	if out.Status != "ok" {
		if out.Message != "" {
			return nil, errors.New(out.Message)
		}
		return nil, errors.New("static route init failed")
	}
	return &out, nil
}

// Health fetches /healthz.
func (c *HTTPClient) Health() (*Health, error) {
	var h Health
	if err := c.get("/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Shutdown sends POST /shutdown. The daemon may exit before writing a
// response, so transport errors are reported but usually ignorable.
func (c *HTTPClient) Shutdown() error {
	return c.post("/shutdown", nil, nil)
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
