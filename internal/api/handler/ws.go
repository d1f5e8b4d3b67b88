package handler

import (
	"net/http"

	"cheatreport/backend/internal/feed"
	"cheatreport/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the site's origins once the staff frontend has a fixed host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades a staff member's connection to the live event feed.
func (h *Handler) ServeFeed(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.Roles.HasAny(models.StaffPrivileges...) {
		c.AbortWithStatusJSON(http.StatusForbidden, failure("feed.permissionDenied", "staff only"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	feed.NewClient(h.Hub, conn, actor.UserID).Run()
}
