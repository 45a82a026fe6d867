package helperd

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/cato-helper/console/internal/config"
)

// Server exposes the CMA helper API.
type Server struct {
	cma         *CMA
	broadcaster *Broadcaster
	cfg         *config.DaemonConfig
	startedAt   time.Time
	shutdown    func() // requests process shutdown; wired by the daemon main
}

// NewServer creates the daemon server.
func NewServer(cma *CMA, broadcaster *Broadcaster, cfg *config.DaemonConfig, shutdown func()) *Server {
	return &Server{
		cma:         cma,
		broadcaster: broadcaster,
		cfg:         cfg,
		startedAt:   time.Now(),
		shutdown:    shutdown,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/cma/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/cma/profiles", s.handleProfiles).Methods(http.MethodGet)
	r.HandleFunc("/cma/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/cma/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/network/static-route/init", s.handleStaticRouteInit).Methods(http.MethodGet)
	r.HandleFunc("/ws/logs", s.handleWSLogs).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/shutdown", s.handleShutdown).Methods(http.MethodPost)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	loggedIn, name, displayName := s.cma.Status()
	resp := map[string]interface{}{"logged_in": loggedIn}
	if name != "" {
		resp["account_name"] = name
	}
	if displayName != "" {
		resp["account_display_name"] = displayName
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	type profileEntry struct {
		Name string `json:"name"`
	}
	profiles := make([]profileEntry, 0, len(s.cfg.Profiles))
	for _, name := range s.cfg.Profiles {
		profiles = append(profiles, profileEntry{Name: name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"profiles": profiles,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Profile string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Profile == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  loginError,
			"message": "profile is required",
		})
		return
	}

	status, message := s.cma.StartLogin(body.Profile)
	log.Printf("login request for %q: %s", body.Profile, status)
	resp := map[string]string{"status": status}
	if message != "" {
		resp["message"] = message
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cma.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStaticRouteInit(w http.ResponseWriter, r *http.Request) {
	if !s.cma.LoggedIn() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status":  "error",
			"message": "cma login required",
		})
		return
	}

	type network struct {
		InterfaceName string `json:"interface_name"`
		Type          string `json:"type"`
		CIDR          string `json:"cidr"`
		Gateway       string `json:"gateway,omitempty"`
		VLAN          *int   `json:"vlan,omitempty"`
		DHCPType      string `json:"dhcp_type,omitempty"`
		SubnetName    string `json:"subnet_name,omitempty"`
	}
	type site struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		Networks []network `json:"networks"`
	}

	sites := make([]site, 0, len(s.cfg.Sites))
	for _, cs := range s.cfg.Sites {
		networks := make([]network, 0, len(cs.Networks))
		for _, cn := range cs.Networks {
			networks = append(networks, network{
				InterfaceName: cn.InterfaceName,
				Type:          cn.Type,
				CIDR:          cn.CIDR,
				Gateway:       cn.Gateway,
				VLAN:          cn.VLAN,
				DHCPType:      cn.DHCPType,
				SubnetName:    cn.SubnetName,
			})
		}
		sites = append(sites, site{ID: cs.ID, Name: cs.Name, Networks: networks})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"sites":  sites,
		"remoteIpRanges": map[string]string{
			"default": s.cfg.IPRanges.Default,
			"dynamic": s.cfg.IPRanges.Dynamic,
			"static":  s.cfg.IPRanges.Static,
		},
	})
}

func (s *Server) handleWSLogs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		// Local-only daemon; the console connects without an Origin.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("log stream client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("log stream client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	pid := os.Getpid()
	resp := map[string]interface{}{
		"status":     "ok",
		"pid":        pid,
		"uptime_sec": time.Since(s.startedAt).Seconds(),
	}
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			resp["cpu_percent"] = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			resp["rss_bytes"] = mem.RSS
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	log.Println("shutdown requested")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	if s.shutdown != nil {
		// After the response is on the wire.
		go s.shutdown()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode error: %v", err)
	}
}
