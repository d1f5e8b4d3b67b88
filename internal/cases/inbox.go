package cases

import (
	"context"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"
)

// Box names an inbox view.
type Box string

const (
	BoxIn       Box = "in"
	BoxOut      Box = "out"
	BoxAnnounce Box = "announce"
)

// Mark is an operation on a received message.
type Mark string

const (
	MarkRead   Mark = "read"
	MarkUnread Mark = "unread"
	MarkDelete Mark = "del"
)

var (
	errMessageDenied   = apperr.Permission("message.denied", "permission denied")
	errMessageBlocked  = apperr.Permission("message.blocked", "recipient does not accept direct messages")
	errMessageNotFound = apperr.NotFound("message.notFound", "no such message or user")
)

var broadcastSenders = []models.Privilege{models.PrivilegeSuper, models.PrivilegeRoot, models.PrivilegeDev}

// announceTypes returns the broadcast types visible to roles.
func announceTypes(roles models.PrivilegeSet) []models.MessageType {
	types := []models.MessageType{models.MessageToAll}
	if roles.HasAny(AppealReviewers...) {
		types = append(types, models.MessageBanAppeal, models.MessageToAdmins)
	}
	if roles.Has(models.PrivilegeNormal) {
		types = append(types, models.MessageToNormals)
	}
	return types
}

// Messages lists one inbox box of the actor, newest first.
func (s *Service) Messages(ctx context.Context, actor Actor, box Box, limit, offset int) ([]models.Message, error) {
	if limit < 0 || offset < 0 {
		return nil, apperr.Validation("message.bad", "limit and skip must not be negative")
	}
	f := storage.MessageFilter{Limit: limit, Offset: offset}
	switch box {
	case BoxIn, "":
		f.ToUserID = &actor.UserID
	case BoxOut:
		f.ByUserID = &actor.UserID
	case BoxAnnounce:
		f.Broadcast = true
		f.Types = announceTypes(actor.Roles)
	default:
		return nil, apperr.Validation("message.bad", "box must be in, out or announce")
	}
	msgs, err := s.Storage.ListMessages(ctx, f)
	if err != nil {
		return nil, apperr.Subsystem("message.error", err)
	}
	return msgs, nil
}

// MarkMessage changes a message the actor received. Broadcasts cannot be
// marked.
func (s *Service) MarkMessage(ctx context.Context, actor Actor, id uint, mark Mark) error {
	msg, err := s.Storage.GetMessage(ctx, id)
	if err != nil {
		return storageErr(err, errMessageNotFound, "message")
	}
	if msg.ToUserID == nil || *msg.ToUserID != actor.UserID {
		return errMessageNotFound
	}
	switch mark {
	case MarkRead, MarkUnread:
		err = s.Storage.SetMessageRead(ctx, id, mark == MarkRead)
	case MarkDelete:
		err = s.Storage.DeleteMessage(ctx, id)
	default:
		return apperr.Validation("message.bad", "type must be read, unread or del")
	}
	if err != nil {
		return storageErr(err, errMessageNotFound, "message")
	}
	return nil
}

type SendInput struct {
	ToUserID string
	Type     models.MessageType
	Content  string
}

// SendMessage delivers a user-initiated message:
//   - fatal, toAll, toAdmins and toNormals need super, root or dev;
//   - staff may send direct and warn messages to anyone;
//   - anyone else may send direct messages to users accepting them.
func (s *Service) SendMessage(ctx context.Context, actor Actor, in SendInput) (*models.Message, error) {
	if actor.restricted() {
		return nil, errMessageDenied
	}
	content, err := checkContent(in.Content, "message.bad")
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ByUserID: &actor.UserID, Type: in.Type, Content: content}
	switch in.Type {
	case models.MessageToAll, models.MessageToAdmins, models.MessageToNormals:
		if !actor.Roles.HasAny(broadcastSenders...) {
			return nil, errMessageDenied
		}
	case models.MessageFatal, models.MessageDirect, models.MessageWarn:
		to, err := s.Storage.GetUser(ctx, in.ToUserID)
		if err != nil {
			return nil, storageErr(err, errMessageNotFound, "message")
		}
		staff := actor.Roles.HasAny(models.StaffPrivileges...)
		switch {
		case in.Type == models.MessageFatal && actor.Roles.HasAny(broadcastSenders...):
		case in.Type != models.MessageFatal && staff:
		case in.Type == models.MessageDirect:
			if !to.AllowDM {
				return nil, errMessageBlocked
			}
		default:
			return nil, errMessageDenied
		}
		msg.ToUserID = &to.ID
	default:
		return nil, apperr.Validation("message.bad", "unsupported message type")
	}

	if err := s.Storage.CreateMessage(ctx, msg); err != nil {
		return nil, apperr.Subsystem("message.error", err)
	}
	return msg, nil
}
