package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/pkg/apimetrics"
	"github.com/jordigilh/intentrouter/pkg/registry"
	metarouter "github.com/jordigilh/intentrouter/pkg/router"
)

const (
	healthPushInterval = 10 * time.Second
	metricsPushInterval = 5 * time.Second
)

// wsHub upgrades /ws/health and /ws/metrics connections and pushes
// periodic snapshots until the socket closes.
type wsHub struct {
	registry *registry.Registry
	router *metarouter.Router
	metrics *apimetrics.Metrics
	log *zap.Logger
	upgrader websocket.Upgrader
}

func newWSHub(reg *registry.Registry, rtr *metarouter.Router, m *apimetrics.Metrics, log *zap.Logger) *wsHub {
	return &wsHub{
		registry: reg,
		router: rtr,
		metrics: m,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *wsHub) serve(w http.ResponseWriter, r *http.Request, interval time.Duration, snapshot func() any) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
		defer h.metrics.ActiveConnections.Dec()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Drain client reads so close frames and pings are handled; an error
	// here means the peer went away, which ends the push loop too.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(snapshot()); err != nil {
				return
			}
		}
	}
}

// GET /ws/health
func (s *Server) handleWSHealth(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, healthPushInterval, func() any {
		return s.registry.AllHealth()
	})
}

// GET /ws/metrics
func (s *Server) handleWSMetrics(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, metricsPushInterval, func() any {
		return s.meta.GetMetrics()
	})
}
