package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
)

// InboxSocketController upgrades agent connections for realtime inbox
// events. The socket is push-only: clients receive tenant-scoped events and
// send nothing but pongs.
type InboxSocketController struct {
	hub *realtime.Hub
}

func NewInboxSocketController(hub *realtime.Hub) *InboxSocketController {
	return &InboxSocketController{hub: hub}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

const readTimeout = 60 * time.Second

func (ctl *InboxSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Query("tenant_id")
		agentID := c.Query("agent_id")
		if tenantID == "" || agentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and agent_id are required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(tenantID, agentID, ws)
		ctl.hub.Attach(conn)
		defer func() {
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 16)
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(readTimeout))
		})

		// Drain the read side until the client goes away; inbound frames are
		// ignored.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}
}
