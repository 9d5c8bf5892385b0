package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/mynu/mynu-backend/internal/middleware"
	ws "github.com/mynu/mynu-backend/internal/websocket"
)

type BillingFeedController struct {
	hub      *ws.Hub
	upgrader *gorillaws.Upgrader
}

func NewBillingFeedController(hub *ws.Hub, allowedOrigins []string) *BillingFeedController {
	return &BillingFeedController{
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// Connect upgrades to a websocket that receives the user's billing notifications
// GET /api/v1/ws/billing
func (ctrl *BillingFeedController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	ctrl.hub.Serve(conn, userID)
	log.Info("Billing feed connected", map[string]interface{}{
		"user_id": userID,
	})
}
