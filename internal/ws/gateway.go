package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The plugin connects from the game process, not a browser
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Gateway upgrades plugin socket requests and runs their connections
type Gateway struct {
	machine     *Machine
	registry    *Registry
	authTimeout time.Duration
	log         *logger.Logger
	metrics     *observability.Metrics
}

// NewGateway creates the plugin socket gateway
func NewGateway(machine *Machine, registry *Registry, authTimeout time.Duration, log *logger.Logger, metrics *observability.Metrics) *Gateway {
	if authTimeout <= 0 {
		authTimeout = 10 * time.Second
	}
	return &Gateway{
		machine:     machine,
		registry:    registry,
		authTimeout: authTimeout,
		log:         log,
		metrics:     metrics,
	}
}

// Registry exposes the connection registry for health reporting
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// ServeWS handles a plugin socket upgrade request
func (g *Gateway) ServeWS(c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.LogError(err, "websocket upgrade failed")
		return
	}

	conn := NewConn(uuid.New().String(), sock, g.machine, g.registry, g.authTimeout, g.log, g.metrics)

	if g.metrics != nil {
		g.metrics.PluginConnections.Inc()
	}
	g.log.Info("plugin connected", "conn_id", conn.id, "remote", c.Request.RemoteAddr)

	go conn.WritePump()
	go func() {
		conn.ReadPump()
		if g.metrics != nil {
			g.metrics.PluginConnections.Dec()
		}
		g.log.Info("plugin disconnected", "conn_id", conn.id)
	}()
}
