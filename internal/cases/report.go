package cases

import (
	"context"
	"strings"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/lifecycle"
	"cheatreport/backend/internal/metrics"
	"cheatreport/backend/internal/models"

	"go.uber.org/zap"
)

// ReportInput is a report against a player named by OriginName, or by
// OriginUserID for ReportByID.
type ReportInput struct {
	OriginName   string
	OriginUserID string
	Game         string
	CheatMethods string
	VideoLink    string
	Description  string
}

type ReportResult struct {
	Player        models.Player `json:"player"`
	Report        models.Report `json:"report"`
	StatusChanged bool          `json:"statusChanged"`
}

var errReportPermission = apperr.Permission("report.permissionDenied", "restricted accounts cannot report")

// ReportPlayer reports the player currently named in.OriginName.
func (s *Service) ReportPlayer(ctx context.Context, actor Actor, in ReportInput) (*ReportResult, error) {
	if strings.TrimSpace(in.OriginName) == "" {
		return nil, apperr.Validation("report.bad", "originName is required")
	}
	return s.report(ctx, actor, in, func(ctx context.Context) (models.Profile, error) {
		return s.Identities.ByName(ctx, strings.TrimSpace(in.OriginName))
	})
}

// ReportByID reports the player with external id in.OriginUserID.
func (s *Service) ReportByID(ctx context.Context, actor Actor, in ReportInput) (*ReportResult, error) {
	if strings.TrimSpace(in.OriginUserID) == "" {
		return nil, apperr.Validation("report.bad", "originUserId is required")
	}
	return s.report(ctx, actor, in, func(ctx context.Context) (models.Profile, error) {
		return s.Identities.ByUserID(ctx, strings.TrimSpace(in.OriginUserID))
	})
}

func (s *Service) report(ctx context.Context, actor Actor, in ReportInput, resolve func(context.Context) (models.Profile, error)) (*ReportResult, error) {
	if actor.restricted() {
		return nil, errReportPermission
	}
	if !config.IsSupportedGame(in.Game) {
		return nil, apperr.Validation("report.bad", "unsupported game")
	}
	methods, err := models.ParseCheatMethods(in.CheatMethods, config.CheatMethods)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation("report.bad", "invalid cheat methods"), err)
	}
	description, err := checkContent(in.Description, "report.bad")
	if err != nil {
		return nil, err
	}

	profile, err := resolve(ctx)
	if err != nil {
		return nil, resolveErr(err, "report")
	}
	avatar := s.Identities.Avatar(ctx, profile.UserID, config.DefaultAvatar)

	player, err := s.Storage.UpsertPlayer(ctx, models.PlayerUpsert{
		Profile:       profile,
		Game:          in.Game,
		AvatarLink:    avatar,
		CommentsDelta: 1,
	})
	if err != nil {
		return nil, apperr.Subsystem("report.error", err)
	}

	previous := player.Status
	next, err := lifecycle.NextStatus(previous, actor.Roles, models.ActionReport)
	if err != nil {
		return nil, err
	}
	changed := lifecycle.Changed(previous, next)
	if changed {
		if err := s.Storage.SetPlayerStatus(ctx, player.ID, next); err != nil {
			return nil, apperr.Subsystem("report.error", err)
		}
		player.Status = next
		metrics.StatusTransitionsTotal.WithLabelValues(next.String()).Inc()
	}

	report := models.Report{
		ByUserID:       actor.UserID,
		ToPlayerID:     player.ID,
		ToOriginName:   profile.Name,
		ToOriginUserID: profile.UserID,
		Game:           in.Game,
		CheatMethods:   methods.String(),
		VideoLink:      strings.TrimSpace(in.VideoLink),
		Description:    description,
	}
	if err := s.Storage.CreateReport(ctx, &report); err != nil {
		return nil, apperr.Subsystem("report.error", err)
	}

	s.log.Info("player reported",
		zap.Uint("player_id", player.ID),
		zap.String("origin_user_id", profile.UserID),
		zap.String("status", player.Status.String()),
		zap.Bool("status_changed", changed),
	)
	s.publish(eventbus.KindReport, eventbus.ReportPayload{Report: report, Player: *player, StatusChanged: changed})
	return &ReportResult{Player: *player, Report: report, StatusChanged: changed}, nil
}
