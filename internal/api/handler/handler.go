// Package handler exposes the case service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/cases"
	"cheatreport/backend/internal/feed"
	"cheatreport/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	Cases  *cases.Service
	Tokens *TokenIssuer
	Hub    *feed.Hub
	log    *logger.Logger
}

func NewHandler(svc *cases.Service, tokens *TokenIssuer, hub *feed.Hub, log *logger.Logger) *Handler {
	return &Handler{Cases: svc, Tokens: tokens, Hub: hub, log: log}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/player", h.GetPlayer)
	api.GET("/player/:id/timeline", h.Timeline)

	authed := api.Group("", h.RequireAuth())
	authed.POST("/player/report", h.Report)
	authed.POST("/player/reportById", h.ReportByID)
	authed.POST("/player/judgement", h.Judge)
	authed.POST("/player/reply", h.Reply)
	authed.POST("/player/banappeal", h.BanAppeal)
	authed.POST("/player/viewBanappeal", h.ViewBanAppeal)
	authed.POST("/player/:id/refresh", h.Refresh)

	authed.GET("/message", h.Messages)
	authed.POST("/message", h.SendMessage)
	authed.POST("/message/mark", h.MarkMessage)

	authed.GET("/feed", h.ServeFeed)
}

func failure(code, message string) gin.H {
	return gin.H{"error": 1, "code": code, "message": message}
}

func success(code string, data any) gin.H {
	return gin.H{"success": 1, "code": code, "data": data}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// abort writes err as a JSON failure. Subsystem failures are logged and
// their cause is not exposed.
func (h *Handler) abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := apperr.CodeOf(err, "server.error")
	if kind == apperr.KindSubsystem {
		h.log.Error("request failed", err, zap.String("path", c.FullPath()), zap.String("code", code))
		c.AbortWithStatusJSON(http.StatusInternalServerError, failure(code, "internal error"))
		return
	}
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	c.AbortWithStatusJSON(statusOf(kind), failure(code, msg))
}

// bind decodes the {"data": ...} envelope of a request body into out.
func bind[T any](c *gin.Context, code string) (T, bool) {
	var body struct {
		Data T `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, failure(code, err.Error()))
		return body.Data, false
	}
	return body.Data, true
}
