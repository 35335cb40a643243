package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/onnwee/voicesmith/voice"
)

// GatewayStatus reports the liveness of the platform connection.
type GatewayStatus interface {
	Connected() bool
}

// Handlers carries the dependencies of the HTTP surface.
type Handlers struct {
	registry *voice.Registry
	gateway  GatewayStatus
	started  time.Time
}

func NewHandlers(registry *voice.Registry, gw GatewayStatus) *Handlers {
	return &Handlers{registry: registry, gateway: gw, started: time.Now()}
}

// HandleHealthz responds to liveness probes. The process being up is enough;
// gateway connectivity is a readiness concern.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probes: ready once the gateway socket
// is up.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.gateway != nil && !h.gateway.Connected() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":       "not_ready",
			"failed_check": "gateway",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a small operational summary.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	connected := h.gateway == nil || h.gateway.Connected()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uptime_seconds":    int(time.Since(h.started).Seconds()),
		"gateway_connected": connected,
		"tracked_channels":  h.registry.Len(),
	})
}

// HandleChannels returns the current tracked-channel snapshot.
func (h *Handlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ChannelID < snapshot[j].ChannelID })
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"channels": snapshot})
}
