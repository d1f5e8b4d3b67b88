package notification

import (
	"context"
	"testing"

	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Dispatcher, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return New(store, localization.Default(), logger.Nop()), store
}

func bindUser(t *testing.T, store *storage.Memory, name, originUserID string) *models.User {
	t.Helper()
	u := &models.User{Username: name}
	if originUserID != "" {
		u.OriginUserID = &originUserID
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func inbox(t *testing.T, store *storage.Memory, userID string) []models.Message {
	t.Helper()
	msgs, err := store.ListMessages(context.Background(), storage.MessageFilter{ToUserID: &userID})
	require.NoError(t, err)
	return msgs
}

func TestDispatcher_ReportWarnsBoundAccount(t *testing.T) {
	d, store := setup(t)
	owner := bindUser(t, store, "alice", "1001")

	err := d.Handle(context.Background(), eventbus.Event{
		Kind: eventbus.KindReport,
		Payload: eventbus.ReportPayload{
			Report: models.Report{ID: 5, ToOriginUserID: "1001", ToOriginName: "Alice", Game: "bf1"},
		},
	})
	require.NoError(t, err)

	msgs := inbox(t, store, owner.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageWarn, msgs[0].Type)
	assert.Nil(t, msgs[0].ByUserID)
	assert.Contains(t, msgs[0].Content, "bf1")
}

func TestDispatcher_ReportOnUnboundIdentityIsSilent(t *testing.T) {
	d, store := setup(t)

	err := d.Handle(context.Background(), eventbus.Event{
		Kind:    eventbus.KindReport,
		Payload: eventbus.ReportPayload{Report: models.Report{ToOriginUserID: "nobody"}},
	})
	require.NoError(t, err)

	all, _ := store.ListMessages(context.Background(), storage.MessageFilter{})
	assert.Empty(t, all)
}

func TestDispatcher_JudgeMessage(t *testing.T) {
	d, store := setup(t)
	owner := bindUser(t, store, "alice", "1001")

	err := d.Handle(context.Background(), eventbus.Event{
		Kind: eventbus.KindJudge,
		Payload: eventbus.JudgePayload{
			Judgement: models.Judgement{ID: 2, ToOriginUserID: "1001", Action: models.ActionGuilt},
			Player:    models.Player{OriginName: "Alice"},
		},
	})
	require.NoError(t, err)

	msgs := inbox(t, store, owner.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Your account Alice was judged as guilt.", msgs[0].Content)
}

func TestDispatcher_ReplyNotifiesAuthorOfTarget(t *testing.T) {
	d, store := setup(t)
	ctx := context.Background()
	reporter := bindUser(t, store, "reporter", "")
	replier := bindUser(t, store, "replier", "")

	report := &models.Report{ByUserID: reporter.ID, ToPlayerID: 1}
	require.NoError(t, store.CreateReport(ctx, report))

	typ, id := models.CommentReport, report.ID
	err := d.Handle(ctx, eventbus.Event{
		Kind: eventbus.KindReply,
		Payload: eventbus.ReplyPayload{
			Reply: models.Reply{ID: 9, ByUserID: replier.ID, ToPlayerID: 1, ToCommentType: &typ, ToCommentID: &id, Content: "seen it too"},
		},
	})
	require.NoError(t, err)

	msgs := inbox(t, store, reporter.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageReply, msgs[0].Type)
	require.NotNil(t, msgs[0].ByUserID)
	assert.Equal(t, replier.ID, *msgs[0].ByUserID)
}

func TestDispatcher_ReplyWithoutTargetOrToSelf(t *testing.T) {
	d, store := setup(t)
	ctx := context.Background()
	author := bindUser(t, store, "author", "")

	require.NoError(t, d.Handle(ctx, eventbus.Event{
		Kind:    eventbus.KindReply,
		Payload: eventbus.ReplyPayload{Reply: models.Reply{ByUserID: author.ID, ToPlayerID: 1}},
	}))

	own := &models.Reply{ByUserID: author.ID, ToPlayerID: 1}
	require.NoError(t, store.CreateReply(ctx, own))
	typ, id := models.CommentReply, own.ID
	require.NoError(t, d.Handle(ctx, eventbus.Event{
		Kind:    eventbus.KindReply,
		Payload: eventbus.ReplyPayload{Reply: models.Reply{ByUserID: author.ID, ToCommentType: &typ, ToCommentID: &id}},
	}))

	assert.Empty(t, inbox(t, store, author.ID))
}

func TestDispatcher_BanAppealLifecycle(t *testing.T) {
	d, store := setup(t)
	ctx := context.Background()
	appeal := models.BanAppeal{ID: 4, ByUserID: "appellant", ToPlayerID: 1}

	require.NoError(t, d.Handle(ctx, eventbus.Event{
		Kind:    eventbus.KindBanAppeal,
		Payload: eventbus.BanAppealPayload{Appeal: appeal, Player: models.Player{OriginName: "Alice"}},
	}))

	broadcast := storage.MessageFilter{Broadcast: true, Types: []models.MessageType{models.MessageBanAppeal}}
	msgs, err := store.ListMessages(ctx, broadcast)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].ToUserID)
	assert.Equal(t, "4", msgs[0].Ref)

	require.NoError(t, d.Handle(ctx, eventbus.Event{
		Kind:    eventbus.KindViewBanAppeal,
		Payload: eventbus.ViewBanAppealPayload{Appeal: appeal, AdminID: "a3"},
	}))
	msgs, err = store.ListMessages(ctx, broadcast)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDispatcher_UnknownPayload(t *testing.T) {
	d, _ := setup(t)
	err := d.Handle(context.Background(), eventbus.Event{Kind: eventbus.KindNameTracker, Payload: eventbus.NameLogPayload{}})
	assert.Error(t, err)
}
