package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmrhub/hytera-bridge/pkg/bridge"
	"github.com/dmrhub/hytera-bridge/pkg/database"
	"github.com/dmrhub/hytera-bridge/pkg/logger"
)

// API handles REST API endpoints
type API struct {
	logger  *logger.Logger
	session *bridge.Session
	packets *database.PacketRepository
}

// NewAPI creates a new API instance. The packet repository may be nil when
// persistence is disabled; /api/packets then returns an empty list.
func NewAPI(log *logger.Logger, session *bridge.Session, packets *database.PacketRepository) *API {
	return &API{
		logger:  log,
		session: session,
		packets: packets,
	}
}

// HandleStatus handles the /api/status endpoint
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	version, commit, build := GetVersionInfo()
	response := map[string]interface{}{
		"status":     "running",
		"service":    "hytera-bridge",
		"version":    version,
		"commit":     commit,
		"build_time": build,
	}
	if a.session != nil {
		response["registered"] = a.session.IsRegistered()
	}

	_ = json.NewEncoder(w).Encode(response)
}

// HandleRepeater handles the /api/repeater endpoint: the current identity
// snapshot plus per-endpoint traffic counters
func (a *API) HandleRepeater(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if a.session == nil {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{})
		return
	}

	stats := make(map[string]map[string]uint64, 3)
	for _, e := range []bridge.Endpoint{bridge.EndpointP2P, bridge.EndpointRDAC, bridge.EndpointDMR} {
		packetsRx, bytesRx, packetsTx, bytesTx := a.session.Stats(e)
		stats[e.String()] = map[string]uint64{
			"packets_rx": packetsRx,
			"bytes_rx":   bytesRx,
			"packets_tx": packetsTx,
			"bytes_tx":   bytesTx,
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"repeater": a.session.Snapshot(),
		"stats":    stats,
	})
}

// HandlePackets handles the /api/packets endpoint: the recent classified
// traffic log
func (a *API) HandlePackets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if a.packets == nil {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]interface{}{})
		return
	}

	records, err := a.packets.GetRecent(limit)
	if err != nil {
		a.logger.Error("Failed to load packet records", logger.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}
