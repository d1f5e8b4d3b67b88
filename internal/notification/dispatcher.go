// Package notification turns domain events into inbox messages.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"

	"go.uber.org/zap"
)

// Store is what the dispatcher reads and writes.
type Store interface {
	storage.MessageStore
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByOriginUserID(ctx context.Context, originUserID string) (*models.User, error)
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	GetJudgement(ctx context.Context, id uint) (*models.Judgement, error)
	GetReply(ctx context.Context, id uint) (*models.Reply, error)
	GetBanAppeal(ctx context.Context, id uint) (*models.BanAppeal, error)
}

// Dispatcher writes zero or one message per event.
type Dispatcher struct {
	store Store
	texts *localization.Localizer
	log   *logger.Logger
}

func New(store Store, texts *localization.Localizer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{store: store, texts: texts, log: log}
}

// Kinds lists the events Handle consumes.
func Kinds() []eventbus.Kind {
	return []eventbus.Kind{
		eventbus.KindReport,
		eventbus.KindReply,
		eventbus.KindJudge,
		eventbus.KindBanAppeal,
		eventbus.KindViewBanAppeal,
	}
}

// Handle is the bus subscriber.
func (d *Dispatcher) Handle(ctx context.Context, ev eventbus.Event) error {
	switch p := ev.Payload.(type) {
	case eventbus.ReportPayload:
		return d.onReport(ctx, p)
	case eventbus.JudgePayload:
		return d.onJudge(ctx, p)
	case eventbus.ReplyPayload:
		return d.onReply(ctx, p)
	case eventbus.BanAppealPayload:
		return d.onBanAppeal(ctx, p)
	case eventbus.ViewBanAppealPayload:
		return d.onViewBanAppeal(ctx, p)
	default:
		return fmt.Errorf("unexpected payload %T for %s", ev.Payload, ev.Kind)
	}
}

// owner returns the account bound to an external identity, or nil.
func (d *Dispatcher) owner(ctx context.Context, originUserID string) (*models.User, error) {
	u, err := d.store.GetUserByOriginUserID(ctx, originUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (d *Dispatcher) onReport(ctx context.Context, p eventbus.ReportPayload) error {
	u, err := d.owner(ctx, p.Report.ToOriginUserID)
	if err != nil || u == nil {
		return err
	}
	return d.send(ctx, &models.Message{
		ToUserID: &u.ID,
		Type:     models.MessageWarn,
		Content:  d.texts.Format(u.Language, "notify.reported", p.Report.ToOriginName, p.Report.Game),
		Ref:      strconv.FormatUint(uint64(p.Report.ID), 10),
	})
}

func (d *Dispatcher) onJudge(ctx context.Context, p eventbus.JudgePayload) error {
	u, err := d.owner(ctx, p.Judgement.ToOriginUserID)
	if err != nil || u == nil {
		return err
	}
	return d.send(ctx, &models.Message{
		ToUserID: &u.ID,
		Type:     models.MessageWarn,
		Content:  d.texts.Format(u.Language, "notify.judged", p.Player.OriginName, p.Judgement.Action),
		Ref:      strconv.FormatUint(uint64(p.Judgement.ID), 10),
	})
}

func (d *Dispatcher) onReply(ctx context.Context, p eventbus.ReplyPayload) error {
	typ, id, ok := p.Reply.Target()
	if !ok {
		return nil
	}
	author, err := d.authorOf(ctx, typ, id)
	if errors.Is(err, storage.ErrNotFound) {
		d.log.Warn("reply target vanished", zap.Uint("reply_id", p.Reply.ID), zap.Uint("target_id", id))
		return nil
	}
	if err != nil {
		return err
	}
	if author == p.Reply.ByUserID {
		return nil
	}

	lang := localization.DefaultLanguage
	if u, err := d.store.GetUser(ctx, author); err == nil {
		lang = u.Language
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	replier := p.Reply.ByUserID
	return d.send(ctx, &models.Message{
		ByUserID: &replier,
		ToUserID: &author,
		Type:     models.MessageReply,
		Content:  d.texts.Format(lang, "notify.replied", p.Player.OriginName, p.Reply.Content),
		Ref:      strconv.FormatUint(uint64(p.Reply.ID), 10),
	})
}

func (d *Dispatcher) authorOf(ctx context.Context, typ models.CommentType, id uint) (string, error) {
	switch typ {
	case models.CommentReply:
		r, err := d.store.GetReply(ctx, id)
		if err != nil {
			return "", err
		}
		return r.ByUserID, nil
	case models.CommentReport:
		r, err := d.store.GetReport(ctx, id)
		if err != nil {
			return "", err
		}
		return r.ByUserID, nil
	case models.CommentJudgement:
		j, err := d.store.GetJudgement(ctx, id)
		if err != nil {
			return "", err
		}
		return j.ByUserID, nil
	case models.CommentBanAppeal:
		a, err := d.store.GetBanAppeal(ctx, id)
		if err != nil {
			return "", err
		}
		return a.ByUserID, nil
	}
	return "", fmt.Errorf("unknown comment type %d", typ)
}

func (d *Dispatcher) onBanAppeal(ctx context.Context, p eventbus.BanAppealPayload) error {
	appellant := p.Appeal.ByUserID
	return d.send(ctx, &models.Message{
		ByUserID: &appellant,
		Type:     models.MessageBanAppeal,
		Content:  d.texts.Format(localization.DefaultLanguage, "notify.banappeal", p.Player.OriginName),
		Ref:      AppealRef(p.Appeal.ID),
	})
}

func (d *Dispatcher) onViewBanAppeal(ctx context.Context, p eventbus.ViewBanAppealPayload) error {
	n, err := d.store.DeleteMessagesByRef(ctx, models.MessageBanAppeal, AppealRef(p.Appeal.ID))
	if err != nil {
		return fmt.Errorf("remove appeal notification: %w", err)
	}
	d.log.Debug("appeal notification removed", zap.Uint("appeal_id", p.Appeal.ID), zap.Int64("removed", n))
	return nil
}

func (d *Dispatcher) send(ctx context.Context, m *models.Message) error {
	if err := d.store.CreateMessage(ctx, m); err != nil {
		return fmt.Errorf("store %s message: %w", m.Type, err)
	}
	return nil
}

// AppealRef is the message Ref of a ban appeal's staff notification.
func AppealRef(appealID uint) string {
	return strconv.FormatUint(uint64(appealID), 10)
}
