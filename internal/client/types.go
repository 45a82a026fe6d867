// Package client provides the HTTP and WebSocket clients for the local
// CMA helper daemon. Types mirror the daemon wire protocol without
// importing daemon packages.
package client

import (
	"encoding/json"
	"time"
)

// StatusResponse is the shape returned by GET /cma/status.
type StatusResponse struct {
	LoggedIn           bool   `json:"logged_in"`
	AccountName        string `json:"account_name,omitempty"`
	AccountDisplayName string `json:"account_display_name,omitempty"`
}

// DisplayLabel returns the best label for a logged-in session, or ""
// when the backend supplied none.
func (s StatusResponse) DisplayLabel() string {
	if s.AccountDisplayName != "" {
		return s.AccountDisplayName
	}
	return s.AccountName
}

// Profile identifies a login context the user can select.
type Profile struct {
	Name string `json:"name"`
}

// ProfilesResponse is the shape returned by GET /cma/profiles.
type ProfilesResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Profiles []Profile `json:"profiles,omitempty"`
}

// Login outcome values returned by POST /cma/login.
const (
	LoginAlreadyLoggedIn = "already_logged_in"
	LoginStarted         = "started"
	LoginError           = "error"
)

// LoginResponse is the shape returned by POST /cma/login.
type LoginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SiteNetwork is one row of a site's network table.
type SiteNetwork struct {
	InterfaceName string `json:"interface_name"`
	Type          string `json:"type"`
	CIDR          string `json:"cidr"`
	Gateway       string `json:"gateway,omitempty"`
	VLAN          *int   `json:"vlan,omitempty"`
	DHCPType      string `json:"dhcp_type,omitempty"`
	SubnetName    string `json:"subnet_name,omitempty"`
}

// Site groups the networks configured under one CMA site.
type Site struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Networks []SiteNetwork `json:"networks"`
}

// RemoteIPRanges holds the account-level IP range assignments.
type RemoteIPRanges struct {
	Default string `json:"default,omitempty"`
	Dynamic string `json:"dynamic,omitempty"`
	Static  string `json:"static,omitempty"`
}

// StaticRouteInit is the shape returned by GET /api/network/static-route/init.
type StaticRouteInit struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	Sites          []Site         `json:"sites,omitempty"`
	RemoteIPRanges RemoteIPRanges `json:"remoteIpRanges"`
}

// Health is the shape returned by GET /healthz.
type Health struct {
	Status     string  `json:"status"`
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
	UptimeSec  float64 `json:"uptime_sec"`
}

// --- WebSocket log stream types ---

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgLog MessageType = "log"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// LogPayload is one helper daemon log line.
type LogPayload struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}
