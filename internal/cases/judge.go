package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/lifecycle"
	"cheatreport/backend/internal/metrics"
	"cheatreport/backend/internal/models"

	"go.uber.org/zap"
)

type JudgeInput struct {
	PlayerID     uint
	Action       models.Action
	CheatMethods string
	Content      string
}

type JudgeResult struct {
	Player        models.Player    `json:"player"`
	Judgement     models.Judgement `json:"judgement"`
	StatusChanged bool             `json:"statusChanged"`
}

var errJudgementNotFound = apperr.NotFound("judgement.notFound", "no such player")

// Judge records a staff decision and moves the case accordingly. Concurrent
// judgements of one player race on its status; the last write wins.
func (s *Service) Judge(ctx context.Context, actor Actor, in JudgeInput) (*JudgeResult, error) {
	if !in.Action.IsJudgement() {
		return nil, lifecycle.ErrUnknownAction
	}
	content, err := checkContent(in.Content, "judgement.bad")
	if err != nil {
		return nil, err
	}
	var methods models.CheatMethodSet
	if in.Action.RequiresCheatMethods() {
		methods, err = models.ParseCheatMethods(in.CheatMethods, config.CheatMethods)
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation("judgement.bad", "guilt and kill need at least one cheat method"), err)
		}
	}

	player, err := s.Storage.GetPlayer(ctx, in.PlayerID)
	if err != nil {
		return nil, storageErr(err, errJudgementNotFound, "judgement")
	}

	previous := player.Status
	next, err := lifecycle.NextStatus(previous, actor.Roles, in.Action)
	if err != nil {
		return nil, err
	}
	changed := lifecycle.Changed(previous, next)

	var banMethods string
	if next == models.StatusBanned {
		banMethods = methods.String()
	}
	updated, err := s.Storage.ApplyJudgement(ctx, player.ID, next, banMethods)
	if err != nil {
		return nil, storageErr(err, errJudgementNotFound, "judgement")
	}
	if changed {
		metrics.StatusTransitionsTotal.WithLabelValues(next.String()).Inc()
	}

	judgement := models.Judgement{
		ByUserID:       actor.UserID,
		ToPlayerID:     player.ID,
		ToOriginUserID: player.OriginUserID,
		CheatMethods:   methods.String(),
		Action:         in.Action,
		Content:        content,
	}
	if err := s.Storage.CreateJudgement(ctx, &judgement); err != nil {
		return nil, apperr.Subsystem("judgement.error", err)
	}

	s.log.Info("player judged",
		zap.Uint("player_id", player.ID),
		zap.String("action", string(in.Action)),
		zap.String("from", previous.String()),
		zap.String("to", next.String()),
	)
	s.publish(eventbus.KindJudge, eventbus.JudgePayload{
		Judgement:     judgement,
		Player:        *updated,
		Previous:      previous,
		StatusChanged: changed,
	})
	return &JudgeResult{Player: *updated, Judgement: judgement, StatusChanged: changed}, nil
}
