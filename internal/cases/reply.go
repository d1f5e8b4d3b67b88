package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"
)

type ReplyInput struct {
	PlayerID      uint
	ToCommentType *models.CommentType
	ToCommentID   *uint
	Content       string
}

var (
	errReplyPermission = apperr.Permission("reply.permissionDenied", "restricted accounts cannot reply")
	errReplyNotFound   = apperr.NotFound("reply.notFound", "no such player or comment")
)

// Reply comments on a player's case, optionally answering one of its items.
func (s *Service) Reply(ctx context.Context, actor Actor, in ReplyInput) (*models.Reply, error) {
	if actor.restricted() {
		return nil, errReplyPermission
	}
	content, err := checkContent(in.Content, "reply.bad")
	if err != nil {
		return nil, err
	}
	if (in.ToCommentType == nil) != (in.ToCommentID == nil) {
		return nil, apperr.Validation("reply.bad", "toCommentType and toCommentId go together")
	}
	if in.ToCommentType != nil && !in.ToCommentType.IsValid() {
		return nil, apperr.Validation("reply.bad", "unknown comment type")
	}

	player, err := s.Storage.GetPlayer(ctx, in.PlayerID)
	if err != nil {
		return nil, storageErr(err, errReplyNotFound, "reply")
	}
	if in.ToCommentType != nil {
		owner, err := s.commentPlayer(ctx, *in.ToCommentType, *in.ToCommentID)
		if err != nil {
			return nil, storageErr(err, errReplyNotFound, "reply")
		}
		if owner != player.ID {
			return nil, errReplyNotFound
		}
	}

	reply := models.Reply{
		ByUserID:      actor.UserID,
		ToPlayerID:    player.ID,
		ToCommentType: in.ToCommentType,
		ToCommentID:   in.ToCommentID,
		Content:       content,
	}
	if err := s.Storage.CreateReply(ctx, &reply); err != nil {
		return nil, apperr.Subsystem("reply.error", err)
	}
	if err := s.Storage.IncrementComments(ctx, player.ID); err != nil {
		return nil, storageErr(err, errReplyNotFound, "reply")
	}
	player.CommentsNum++

	s.publish(eventbus.KindReply, eventbus.ReplyPayload{Reply: reply, Player: *player})
	return &reply, nil
}

// commentPlayer returns the player an item belongs to.
func (s *Service) commentPlayer(ctx context.Context, typ models.CommentType, id uint) (uint, error) {
	switch typ {
	case models.CommentReply:
		r, err := s.Storage.GetReply(ctx, id)
		if err != nil {
			return 0, err
		}
		return r.ToPlayerID, nil
	case models.CommentReport:
		r, err := s.Storage.GetReport(ctx, id)
		if err != nil {
			return 0, err
		}
		return r.ToPlayerID, nil
	case models.CommentJudgement:
		j, err := s.Storage.GetJudgement(ctx, id)
		if err != nil {
			return 0, err
		}
		return j.ToPlayerID, nil
	case models.CommentBanAppeal:
		a, err := s.Storage.GetBanAppeal(ctx, id)
		if err != nil {
			return 0, err
		}
		return a.ToPlayerID, nil
	}
	return 0, storage.ErrNotFound
}
