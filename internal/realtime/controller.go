package realtime

import (
	"context"
	"net/http"
	"time"

	"busline/internal/shared/config"
	"busline/internal/shared/utils/response"
	"busline/internal/trips"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// SnapshotSource answers the current availability of a trip.
type SnapshotSource interface {
	TripSnapshot(ctx context.Context, tripID uuid.UUID) (*trips.AvailabilitySnapshot, error)
}

type Controller struct {
	hub          *Hub
	source       SnapshotSource
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	log          *logger.Logger
}

func NewController(hub *Hub, source SnapshotSource, cfg config.RealtimeConfig) *Controller {
	ping := cfg.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return &Controller{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		pingInterval: ping,
		log:          logger.GetDefault().WithComponent("realtime"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// WatchAvailability upgrades the request and streams the trip's availability: the current
// snapshot first, then one frame per committed change.
func (c *Controller) WatchAvailability(ctx *gin.Context) {
	tripID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid trip ID", nil, nil)
		return
	}

	snap, err := c.source.TripSnapshot(ctx.Request.Context(), tripID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	initial, err := encode(snap)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// the upgrader has already written the failure
		c.log.Warn("websocket upgrade failed", "trip_id", tripID.String(), "error", err.Error())
		return
	}

	cl := newClient(tripID)
	cl.send <- initial
	if !c.hub.subscribe(ctx.Request.Context(), cl) {
		conn.Close()
		return
	}
	c.log.Debug("availability subscriber joined", "trip_id", tripID.String())

	go c.writePump(conn, cl)
	c.readPump(conn)
	c.hub.unsubscribe(cl)
	c.log.Debug("availability subscriber left", "trip_id", tripID.String())
}

func (c *Controller) writePump(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and returns when the connection goes away.
func (c *Controller) readPump(conn *websocket.Conn) {
	pongWait := 2 * c.pingInterval
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", "error", err.Error())
			}
			return
		}
	}
}
