// Package telegram relays case events that need staff attention to a
// Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the relay uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot authorizes token against the Bot API.
func NewBot(token string, log *logger.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	bot.Debug = false
	log.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))
	return bot, nil
}

// Alerts posts one line per ban appeal or judgement to the staff chat.
type Alerts struct {
	bot    Sender
	chatID int64
	texts  *localization.Localizer
	lang   string
	log    *logger.Logger
}

func NewAlerts(bot Sender, chatID int64, texts *localization.Localizer, log *logger.Logger) *Alerts {
	return &Alerts{bot: bot, chatID: chatID, texts: texts, lang: localization.DefaultLanguage, log: log}
}

// Kinds lists the events Handle consumes.
func Kinds() []eventbus.Kind {
	return []eventbus.Kind{eventbus.KindBanAppeal, eventbus.KindJudge}
}

// Handle is the bus subscriber.
func (a *Alerts) Handle(_ context.Context, ev eventbus.Event) error {
	text, ok := a.format(ev)
	if !ok {
		return nil
	}
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.LinkPreviewOptions.IsDisabled = true
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send %s alert: %w", ev.Kind, err)
	}
	a.log.Debug("staff alert sent", zap.String("event_kind", string(ev.Kind)), zap.String("event_id", ev.ID))
	return nil
}

func (a *Alerts) format(ev eventbus.Event) (string, bool) {
	switch p := ev.Payload.(type) {
	case eventbus.BanAppealPayload:
		return a.texts.Format(a.lang, "alert.banappeal",
			strconv.FormatUint(uint64(p.Appeal.ID), 10), p.Player.OriginName), true
	case eventbus.JudgePayload:
		return a.texts.Format(a.lang, "alert.judged",
			p.Judgement.ByUserID, p.Player.OriginName, p.Judgement.Action, p.Player.Status), true
	}
	return "", false
}
