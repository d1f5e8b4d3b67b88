package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/models"

	"go.uber.org/zap"
)

// AppealReviewers may review ban appeals.
var AppealReviewers = []models.Privilege{models.PrivilegeAdmin, models.PrivilegeSuper, models.PrivilegeRoot}

var (
	errAppealPermission = apperr.Permission("banappeal.permissionDenied", "permission denied")
	errAppealNotFound   = apperr.NotFound("banappeal.notFound", "no such player or ban appeal")
)

// BanAppeal files an appeal against a player's case.
func (s *Service) BanAppeal(ctx context.Context, actor Actor, playerID uint, content string) (*models.BanAppeal, error) {
	if actor.restricted() {
		return nil, errAppealPermission
	}
	content, err := checkContent(content, "banappeal.bad")
	if err != nil {
		return nil, err
	}
	player, err := s.Storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, storageErr(err, errAppealNotFound, "banappeal")
	}

	appeal := models.BanAppeal{
		ByUserID:   actor.UserID,
		ToPlayerID: player.ID,
		Content:    content,
		Status:     models.AppealOpen,
	}
	if err := s.Storage.CreateBanAppeal(ctx, &appeal); err != nil {
		return nil, apperr.Subsystem("banappeal.error", err)
	}

	s.publish(eventbus.KindBanAppeal, eventbus.BanAppealPayload{Appeal: appeal, Player: *player})
	return &appeal, nil
}

// ViewBanAppeal records a staff review of an appeal and sets its status.
// The review that completes the reviewer quorum publishes viewBanappeal;
// later reviews, and repeated reviews by the same admin, publish nothing.
func (s *Service) ViewBanAppeal(ctx context.Context, actor Actor, appealID uint, status models.AppealStatus) (*models.BanAppeal, error) {
	if !actor.Roles.HasAny(AppealReviewers...) {
		return nil, errAppealPermission
	}
	if !status.IsValid() {
		return nil, apperr.Validation("banappeal.bad", "status must be open, pending or close")
	}

	appeal, added, err := s.Storage.ReviewBanAppeal(ctx, appealID, actor.UserID, status, config.AppealReviewQuorum)
	if err != nil {
		return nil, storageErr(err, errAppealNotFound, "banappeal")
	}
	if added && len(appeal.ViewedAdminIDs) == config.AppealReviewQuorum {
		s.log.Info("ban appeal reached review quorum", zap.Uint("appeal_id", appeal.ID))
		s.publish(eventbus.KindViewBanAppeal, eventbus.ViewBanAppealPayload{Appeal: *appeal, AdminID: actor.UserID})
	}
	return appeal, nil
}
