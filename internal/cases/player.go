package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/models"
)

// PlayerQuery selects a player by exactly one of its keys.
type PlayerQuery struct {
	ID           uint
	OriginUserID string
	PersonaID    string
	WithHistory  bool
}

// Timeline is everything recorded on a case.
type Timeline struct {
	Reports    []models.Report    `json:"reports"`
	Judgements []models.Judgement `json:"judgements"`
	Replies    []models.Reply     `json:"replies"`
	BanAppeals []models.BanAppeal `json:"banAppeals"`
}

var (
	errPlayerNotFound   = apperr.NotFound("player.notFound", "no such player")
	errRefreshForbidden = apperr.Permission("player.permissionDenied", "restricted accounts cannot refresh players")
)

func (s *Service) GetPlayer(ctx context.Context, q PlayerQuery) (*models.Player, error) {
	var (
		p   *models.Player
		err error
	)
	switch {
	case q.ID != 0:
		p, err = s.Storage.GetPlayer(ctx, q.ID)
	case q.OriginUserID != "":
		p, err = s.Storage.GetPlayerByOriginUserID(ctx, q.OriginUserID)
	case q.PersonaID != "":
		p, err = s.Storage.GetPlayerByPersonaID(ctx, q.PersonaID)
	default:
		return nil, apperr.Validation("player.bad", "one of id, originUserId or originPersonaId is required")
	}
	if err != nil {
		return nil, storageErr(err, errPlayerNotFound, "player")
	}
	if q.WithHistory {
		p.History, err = s.Storage.NameHistory(ctx, p.OriginUserID)
		if err != nil {
			return nil, apperr.Subsystem("player.error", err)
		}
	}
	return p, nil
}

// RecordView counts one view of a player's page.
func (s *Service) RecordView(ctx context.Context, playerID uint) error {
	if err := s.Storage.IncrementViews(ctx, playerID); err != nil {
		return storageErr(err, errPlayerNotFound, "player")
	}
	return nil
}

// Timeline lists the valid records of a case. Reports come oldest first;
// judgements, replies and appeals newest first.
func (s *Service) Timeline(ctx context.Context, playerID uint) (*Timeline, error) {
	if _, err := s.Storage.GetPlayer(ctx, playerID); err != nil {
		return nil, storageErr(err, errPlayerNotFound, "player")
	}
	var (
		t   Timeline
		err error
	)
	if t.Reports, err = s.Storage.ListReports(ctx, playerID); err != nil {
		return nil, apperr.Subsystem("player.error", err)
	}
	if t.Judgements, err = s.Storage.ListJudgements(ctx, playerID); err != nil {
		return nil, apperr.Subsystem("player.error", err)
	}
	if t.Replies, err = s.Storage.ListReplies(ctx, playerID); err != nil {
		return nil, apperr.Subsystem("player.error", err)
	}
	if t.BanAppeals, err = s.Storage.ListBanAppeals(ctx, playerID); err != nil {
		return nil, apperr.Subsystem("player.error", err)
	}
	return &t, nil
}

// RefreshPlayer re-resolves a known player's profile and stores the current
// name and avatar. The name is recorded by the profile_refresh subscribers.
func (s *Service) RefreshPlayer(ctx context.Context, actor Actor, playerID uint) (*models.Player, error) {
	if actor.restricted() {
		return nil, errRefreshForbidden
	}
	player, err := s.Storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, storageErr(err, errPlayerNotFound, "player")
	}
	profile, err := s.Identities.ByUserID(ctx, player.OriginUserID)
	if err != nil {
		return nil, resolveErr(err, "player")
	}
	avatar := s.Identities.Avatar(ctx, profile.UserID, config.DefaultAvatar)

	updated, err := s.Storage.UpdatePlayerProfile(ctx, player.ID, profile, avatar)
	if err != nil {
		return nil, storageErr(err, errPlayerNotFound, "player")
	}
	s.publish(eventbus.KindProfileRefresh, eventbus.ProfileRefreshPayload{Player: *updated})
	return updated, nil
}
