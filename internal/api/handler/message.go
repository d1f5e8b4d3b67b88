package handler

import (
	"net/http"
	"strconv"

	"cheatreport/backend/internal/cases"
	"cheatreport/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ToUserID string             `json:"toUserId"`
	Type     models.MessageType `json:"type" binding:"required"`
	Content  string             `json:"content" binding:"required"`
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, failure("message.bad", key+" must be a non-negative integer"))
		return 0, false
	}
	return n, true
}

// Messages serves GET /api/message?box=in|out|announce&limit=&skip=
func (h *Handler) Messages(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	skip, ok := queryInt(c, "skip")
	if !ok {
		return
	}
	msgs, err := h.Cases.Messages(c.Request.Context(), actorFrom(c), cases.Box(c.DefaultQuery("box", "in")), limit, skip)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, success("message.success", gin.H{"messages": msgs, "total": len(msgs)}))
}

func (h *Handler) SendMessage(c *gin.Context) {
	req, ok := bind[sendMessageRequest](c, "message.bad")
	if !ok {
		return
	}
	msg, err := h.Cases.SendMessage(c.Request.Context(), actorFrom(c), cases.SendInput{
		ToUserID: req.ToUserID,
		Type:     req.Type,
		Content:  req.Content,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("message.success", msg))
}

// MarkMessage serves POST /api/message/mark?id=&type=read|unread|del
func (h *Handler) MarkMessage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, failure("message.bad", "id must be a positive integer"))
		return
	}
	mark := cases.Mark(c.Query("type"))
	if err := h.Cases.MarkMessage(c.Request.Context(), actorFrom(c), uint(id), mark); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, success("message.marked", gin.H{"id": id, "type": mark}))
}
