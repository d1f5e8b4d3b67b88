package telegram

import (
	"context"
	"errors"
	"testing"

	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

const staffChat int64 = -100123

func textTo(chatID int64, text string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == chatID && msg.Text == text && msg.LinkPreviewOptions.IsDisabled
	})
}

func TestAlerts_BanAppeal(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", textTo(staffChat, "New ban appeal #7 for Alice")).Return(nil).Once()

	a := NewAlerts(sender, staffChat, localization.Default(), logger.Nop())
	err := a.Handle(context.Background(), eventbus.Event{
		ID:   "ev-1",
		Kind: eventbus.KindBanAppeal,
		Payload: eventbus.BanAppealPayload{
			Appeal: models.BanAppeal{ID: 7},
			Player: models.Player{OriginName: "Alice"},
		},
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestAlerts_Judgement(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", textTo(staffChat, "admin-1 judged Alice as guilt (status banned)")).Return(nil).Once()

	a := NewAlerts(sender, staffChat, localization.Default(), logger.Nop())
	err := a.Handle(context.Background(), eventbus.Event{
		Kind: eventbus.KindJudge,
		Payload: eventbus.JudgePayload{
			Judgement: models.Judgement{ByUserID: "admin-1", Action: models.ActionGuilt},
			Player:    models.Player{OriginName: "Alice", Status: models.StatusBanned},
		},
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestAlerts_IgnoresOtherPayloads(t *testing.T) {
	sender := new(MockSender)
	a := NewAlerts(sender, staffChat, localization.Default(), logger.Nop())

	err := a.Handle(context.Background(), eventbus.Event{Kind: eventbus.KindReply, Payload: eventbus.ReplyPayload{}})
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestAlerts_SendFailure(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(errors.New("chat not found"))

	a := NewAlerts(sender, staffChat, localization.Default(), logger.Nop())
	err := a.Handle(context.Background(), eventbus.Event{
		Kind:    eventbus.KindBanAppeal,
		Payload: eventbus.BanAppealPayload{Appeal: models.BanAppeal{ID: 1}},
	})
	assert.ErrorContains(t, err, "chat not found")
}
