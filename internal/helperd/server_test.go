package helperd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cato-helper/console/internal/config"
)

func newTestServer(t *testing.T, loginDuration time.Duration, failure string) (*httptest.Server, *Broadcaster) {
	t.Helper()
	cfg := config.Default().Daemon
	cfg.Sites = []config.DaemonSite{{
		ID:   "1001",
		Name: "Tokyo HQ",
		Networks: []config.DaemonNetwork{{
			InterfaceName: "LAN1",
			Type:          "Routed",
			CIDR:          "192.168.10.0/24",
		}},
	}}

	broadcaster := NewBroadcaster()
	logf := func(level, format string, args ...interface{}) {}
	cma := NewCMA(cfg.Profiles, loginDuration, failure, logf)
	srv := httptest.NewServer(NewServer(cma, broadcaster, &cfg, nil).Router())
	t.Cleanup(srv.Close)
	return srv, broadcaster
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestProfilesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour, "")

	var out struct {
		Status   string `json:"status"`
		Profiles []struct {
			Name string `json:"name"`
		} `json:"profiles"`
	}
	code := getJSON(t, srv.URL+"/cma/profiles", &out)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Status)
	require.Len(t, out.Profiles, 3)
	assert.Equal(t, "prod-env", out.Profiles[0].Name)
}

func TestLoginLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, 30*time.Millisecond, "")

	var login struct {
		Status string `json:"status"`
	}
	code := postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "prod-env"}, &login)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, loginStarted, login.Status)

	// Still pending right after the start.
	var status struct {
		LoggedIn           bool   `json:"logged_in"`
		AccountName        string `json:"account_name"`
		AccountDisplayName string `json:"account_display_name"`
	}
	getJSON(t, srv.URL+"/cma/status", &status)
	assert.False(t, status.LoggedIn)

	// The worker confirms within the configured duration.
	require.Eventually(t, func() bool {
		getJSON(t, srv.URL+"/cma/status", &status)
		return status.LoggedIn
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "prod-env", status.AccountName)
	assert.Equal(t, "CMA (prod-env)", status.AccountDisplayName)

	// A second login reports the existing session.
	postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "prod-env"}, &login)
	assert.Equal(t, loginAlreadyLoggedIn, login.Status)
}

func TestLoginUnknownProfile(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour, "")

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	code := postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "bogus"}, &out)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, loginError, out.Status)
	assert.Equal(t, errUnknownProfile.Error(), out.Message)
}

func TestLoginMissingProfileIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour, "")

	var out struct {
		Status string `json:"status"`
	}
	code := postJSON(t, srv.URL+"/cma/login", map[string]string{}, &out)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, loginError, out.Status)
}

func TestLoginInjectedFailure(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour, "cli error: token expired")

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "prod-env"}, &out)
	assert.Equal(t, loginError, out.Status)
	assert.Equal(t, "cli error: token expired", out.Message)
}

func TestLogoutDropsSessionAndInFlightWorker(t *testing.T) {
	srv, _ := newTestServer(t, 30*time.Millisecond, "")

	var login struct {
		Status string `json:"status"`
	}
	postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "prod-env"}, &login)
	require.Equal(t, loginStarted, login.Status)

	code := postJSON(t, srv.URL+"/cma/logout", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// The superseded worker must not confirm the session later.
	time.Sleep(100 * time.Millisecond)
	var status struct {
		LoggedIn bool `json:"logged_in"`
	}
	getJSON(t, srv.URL+"/cma/status", &status)
	assert.False(t, status.LoggedIn)
}

func TestStaticRouteInitRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t, 10*time.Millisecond, "")

	resp, err := http.Get(srv.URL + "/api/network/static-route/init")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var login struct {
		Status string `json:"status"`
	}
	postJSON(t, srv.URL+"/cma/login", map[string]string{"profile": "prod-env"}, &login)
	require.Eventually(t, func() bool {
		var status struct {
			LoggedIn bool `json:"logged_in"`
		}
		getJSON(t, srv.URL+"/cma/status", &status)
		return status.LoggedIn
	}, time.Second, 5*time.Millisecond)

	var out struct {
		Status string `json:"status"`
		Sites  []struct {
			Name string `json:"name"`
		} `json:"sites"`
		RemoteIPRanges struct {
			Default string `json:"default"`
		} `json:"remoteIpRanges"`
	}
	code := getJSON(t, srv.URL+"/api/network/static-route/init", &out)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Status)
	require.Len(t, out.Sites, 1)
	assert.Equal(t, "Tokyo HQ", out.Sites[0].Name)
	assert.Equal(t, "10.41.0.0/16", out.RemoteIPRanges.Default)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour, "")

	var out struct {
		Status string  `json:"status"`
		PID    int     `json:"pid"`
		Uptime float64 `json:"uptime_sec"`
	}
	code := getJSON(t, srv.URL+"/healthz", &out)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Status)
	assert.NotZero(t, out.PID)
}

func TestWSLogsStream(t *testing.T) {
	srv, broadcaster := newTestServer(t, time.Hour, "")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return broadcaster.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	broadcaster.Publish("info", "session confirmed")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string `json:"type"`
		Seq     uint64 `json:"seq"`
		Payload struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "log", msg.Type)
	assert.Equal(t, uint64(1), msg.Seq)
	assert.Equal(t, "info", msg.Payload.Level)
	assert.Equal(t, "session confirmed", msg.Payload.Message)
}

func TestBroadcasterDropsForSlowClient(t *testing.T) {
	b := NewBroadcaster()
	// No clients: publish must not block or panic.
	b.Publish("info", "no listeners")
	assert.Equal(t, 0, b.ClientCount())
}

func TestShutdownEndpoint(t *testing.T) {
	called := make(chan struct{})
	cfg := config.Default().Daemon
	cma := NewCMA(cfg.Profiles, time.Hour, "", nil)
	srv := httptest.NewServer(NewServer(cma, NewBroadcaster(), &cfg, func() {
		close(called)
	}).Router())
	defer srv.Close()

	var out struct {
		Status string `json:"status"`
	}
	code := postJSON(t, srv.URL+"/shutdown", nil, &out)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out.Status)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook was not invoked")
	}
}
