package handler

import (
	"net/http"
	"strconv"
	"strings"

	"cheatreport/backend/internal/cases"
	"cheatreport/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type reportRequest struct {
	OriginName   string   `json:"originName"`
	OriginUserID string   `json:"originUserId"`
	Game         string   `json:"game" binding:"required"`
	CheatMethods []string `json:"cheatMethods" binding:"required"`
	VideoLink    string   `json:"videoLink"`
	Description  string   `json:"description" binding:"required"`
}

func (r reportRequest) input() cases.ReportInput {
	return cases.ReportInput{
		OriginName:   r.OriginName,
		OriginUserID: r.OriginUserID,
		Game:         r.Game,
		CheatMethods: strings.Join(r.CheatMethods, ","),
		VideoLink:    r.VideoLink,
		Description:  r.Description,
	}
}

type judgementRequest struct {
	ToPlayerID   uint          `json:"toPlayerId" binding:"required"`
	Action       models.Action `json:"action" binding:"required"`
	CheatMethods []string      `json:"cheatMethods"`
	Content      string        `json:"content" binding:"required"`
}

type replyRequest struct {
	ToPlayerID    uint                `json:"toPlayerId" binding:"required"`
	ToCommentType *models.CommentType `json:"toCommentType"`
	ToCommentID   *uint               `json:"toCommentId"`
	Content       string              `json:"content" binding:"required"`
}

type banAppealRequest struct {
	ToPlayerID uint   `json:"toPlayerId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type viewBanAppealRequest struct {
	ID     uint                `json:"id" binding:"required"`
	Status models.AppealStatus `json:"status" binding:"required"`
}

// GetPlayer serves GET /api/player?id=|originUserId=|originPersonaId=[&history=true]
// and counts a view of the returned player.
func (h *Handler) GetPlayer(c *gin.Context) {
	q := cases.PlayerQuery{
		OriginUserID: c.Query("originUserId"),
		PersonaID:    c.Query("originPersonaId"),
		WithHistory:  c.Query("history") == "true",
	}
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, failure("player.bad", "id must be a positive integer"))
			return
		}
		q.ID = uint(id)
	}
	p, err := h.Cases.GetPlayer(c.Request.Context(), q)
	if err != nil {
		h.abort(c, err)
		return
	}
	if err := h.Cases.RecordView(c.Request.Context(), p.ID); err != nil {
		h.abort(c, err)
		return
	}
	p.ViewNum++
	c.JSON(http.StatusOK, success("player.success", p))
}

func playerID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, failure("player.bad", "id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Timeline(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	t, err := h.Cases.Timeline(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, success("timeline.success", t))
}

func (h *Handler) Report(c *gin.Context) {
	req, ok := bind[reportRequest](c, "report.bad")
	if !ok {
		return
	}
	res, err := h.Cases.ReportPlayer(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("report.success", res))
}

func (h *Handler) ReportByID(c *gin.Context) {
	req, ok := bind[reportRequest](c, "report.bad")
	if !ok {
		return
	}
	res, err := h.Cases.ReportByID(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("report.success", res))
}

func (h *Handler) Judge(c *gin.Context) {
	req, ok := bind[judgementRequest](c, "judgement.bad")
	if !ok {
		return
	}
	res, err := h.Cases.Judge(c.Request.Context(), actorFrom(c), cases.JudgeInput{
		PlayerID:     req.ToPlayerID,
		Action:       req.Action,
		CheatMethods: strings.Join(req.CheatMethods, ","),
		Content:      req.Content,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("judgement.success", res))
}

func (h *Handler) Reply(c *gin.Context) {
	req, ok := bind[replyRequest](c, "reply.bad")
	if !ok {
		return
	}
	reply, err := h.Cases.Reply(c.Request.Context(), actorFrom(c), cases.ReplyInput{
		PlayerID:      req.ToPlayerID,
		ToCommentType: req.ToCommentType,
		ToCommentID:   req.ToCommentID,
		Content:       req.Content,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("reply.success", reply))
}

func (h *Handler) BanAppeal(c *gin.Context) {
	req, ok := bind[banAppealRequest](c, "banappeal.bad")
	if !ok {
		return
	}
	appeal, err := h.Cases.BanAppeal(c.Request.Context(), actorFrom(c), req.ToPlayerID, req.Content)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, success("banappeal.success", appeal))
}

func (h *Handler) ViewBanAppeal(c *gin.Context) {
	req, ok := bind[viewBanAppealRequest](c, "banappeal.bad")
	if !ok {
		return
	}
	appeal, err := h.Cases.ViewBanAppeal(c.Request.Context(), actorFrom(c), req.ID, req.Status)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, success("viewBanappeal.success", appeal))
}

func (h *Handler) Refresh(c *gin.Context) {
	id, ok := playerID(c)
	if !ok {
		return
	}
	p, err := h.Cases.RefreshPlayer(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, success("refresh.success", p))
}
