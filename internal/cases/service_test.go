package cases

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cheatreport/backend/internal/apperr"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/localization"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/nametracker"
	"cheatreport/backend/internal/notification"
	"cheatreport/backend/internal/resolver"
	"cheatreport/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentities struct {
	mu       sync.Mutex
	profiles []models.Profile
}

func (f *fakeIdentities) add(p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.profiles {
		if existing.UserID == p.UserID {
			f.profiles[i] = p
			return
		}
	}
	f.profiles = append(f.profiles, p)
}

func (f *fakeIdentities) find(match func(models.Profile) bool) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if match(p) {
			return p, nil
		}
	}
	return models.Profile{}, &resolver.AllSourcesFailedError{Errors: []error{resolver.ErrProfileNotFound}}
}

func (f *fakeIdentities) ByName(_ context.Context, name string) (models.Profile, error) {
	return f.find(func(p models.Profile) bool { return strings.EqualFold(p.Name, name) })
}

func (f *fakeIdentities) ByUserID(_ context.Context, id string) (models.Profile, error) {
	return f.find(func(p models.Profile) bool { return p.UserID == id })
}

func (f *fakeIdentities) Avatar(_ context.Context, _, fallback string) string {
	return fallback
}

type env struct {
	svc    *Service
	store  *storage.Memory
	ids    *fakeIdentities
	bus    *eventbus.Bus
	mu     sync.Mutex
	events []eventbus.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: storage.NewMemory(), ids: &fakeIdentities{}}
	e.bus = eventbus.New(64, logger.Nop())
	e.bus.Subscribe("recorder", func(ctx context.Context, ev eventbus.Event) error {
		e.mu.Lock()
		e.events = append(e.events, ev)
		e.mu.Unlock()
		return nil
	})
	e.bus.Subscribe("notification", notification.New(e.store, localization.Default(), logger.Nop()).Handle, notification.Kinds()...)
	e.bus.Subscribe("nametracker", nametracker.New(e.store, e.bus, logger.Nop()).Handle, nametracker.Kinds()...)

	ctx, cancel := context.WithCancel(context.Background())
	go e.bus.Run(ctx)
	t.Cleanup(cancel)

	e.svc = NewService(e.store, e.ids, e.bus, logger.Nop())
	return e
}

func (e *env) eventsOf(kind eventbus.Kind) []eventbus.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []eventbus.Event
	for _, ev := range e.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (e *env) waitEvents(t *testing.T, kind eventbus.Kind, n int) []eventbus.Event {
	t.Helper()
	require.Eventually(t, func() bool { return len(e.eventsOf(kind)) >= n }, 2*time.Second, 5*time.Millisecond)
	return e.eventsOf(kind)
}

func (e *env) user(t *testing.T, name string, originUserID string, ps ...models.Privilege) Actor {
	t.Helper()
	u := &models.User{Username: name, Privileges: models.NewPrivilegeSet(ps...).Strings()}
	if originUserID != "" {
		u.OriginUserID = &originUserID
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return Actor{UserID: u.ID, Roles: u.PrivilegeSet()}
}

// inbox is safe to call from Eventually conditions; the memory store never
// fails a listing.
func (e *env) inbox(userID string) []models.Message {
	msgs, _ := e.store.ListMessages(context.Background(), storage.MessageFilter{ToUserID: &userID})
	return msgs
}

func aliceReport() ReportInput {
	return ReportInput{OriginName: "Alice", Game: "bf1", CheatMethods: "aimbot", Description: "obvious aimbot"}
}

func TestReportThenGuilt_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001", PersonaID: "2001"})
	owner := e.user(t, "alice-account", "1001")
	reporter := e.user(t, "reporter", "")
	admin := e.user(t, "admin", "", models.PrivilegeAdmin)

	rep, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspect, rep.Player.Status)
	assert.Equal(t, 1, rep.Player.CommentsNum)
	assert.True(t, rep.StatusChanged)
	assert.Equal(t, config.DefaultAvatar, rep.Player.AvatarLink)
	e.waitEvents(t, eventbus.KindReport, 1)
	require.Eventually(t, func() bool { return len(e.inbox(owner.UserID)) == 1 }, time.Second, 5*time.Millisecond)

	res, err := e.svc.Judge(ctx, admin, JudgeInput{
		PlayerID:     rep.Player.ID,
		Action:       models.ActionGuilt,
		CheatMethods: "aimbot",
		Content:      "confirmed from video",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBanned, res.Player.Status)
	assert.True(t, res.StatusChanged)
	assert.Equal(t, "aimbot", res.Player.CheatMethods)
	assert.Equal(t, 2, res.Player.CommentsNum)

	judged := e.waitEvents(t, eventbus.KindJudge, 1)
	require.Len(t, judged, 1)
	payload := judged[0].Payload.(eventbus.JudgePayload)
	assert.Equal(t, models.StatusSuspect, payload.Previous)

	require.Eventually(t, func() bool { return len(e.inbox(owner.UserID)) == 2 }, time.Second, 5*time.Millisecond)
	warnings := 0
	for _, m := range e.inbox(owner.UserID) {
		if m.Type == models.MessageWarn && strings.Contains(m.Content, "guilt") {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestReport_KnownIdentityIncrementsComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	reporter := e.user(t, "reporter", "")

	first, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)

	in := aliceReport()
	in.Game = "bfv"
	second, err := e.svc.ReportPlayer(ctx, reporter, in)
	require.NoError(t, err)

	assert.Equal(t, first.Player.ID, second.Player.ID)
	assert.Equal(t, first.Player.CommentsNum+1, second.Player.CommentsNum)
	assert.False(t, second.StatusChanged, "a report never moves an open case")
	assert.Equal(t, "bf1,bfv", second.Player.Games)

	byID, err := e.svc.ReportByID(ctx, reporter, ReportInput{OriginUserID: "1001", Game: "bf1", CheatMethods: "wallhack", Description: "again"})
	require.NoError(t, err)
	assert.Equal(t, first.Player.ID, byID.Player.ID)
	assert.Equal(t, 3, byID.Player.CommentsNum)
}

func TestReport_RenameIsTracked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	reporter := e.user(t, "reporter", "")

	_, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	e.waitEvents(t, eventbus.KindNameTracker, 1)

	e.ids.add(models.Profile{Name: "Alicia", UserID: "1001"})
	_, err = e.svc.ReportByID(ctx, reporter, ReportInput{OriginUserID: "1001", Game: "bf1", CheatMethods: "aimbot", Description: "renamed"})
	require.NoError(t, err)
	e.waitEvents(t, eventbus.KindNameTracker, 2)

	p, err := e.svc.GetPlayer(ctx, PlayerQuery{OriginUserID: "1001", WithHistory: true})
	require.NoError(t, err)
	require.Len(t, p.History, 2)
	assert.Equal(t, "Alice", p.History[0].OriginName)
	assert.Equal(t, "Alicia", p.History[1].OriginName)
}

func TestReport_Failures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	reporter := e.user(t, "reporter", "")
	frozen := e.user(t, "frozen", "", models.PrivilegeFreezed)

	tests := []struct {
		name  string
		actor Actor
		in    ReportInput
		kind  apperr.Kind
		code  string
	}{
		{"restricted reporter", frozen, aliceReport(), apperr.KindPermission, "report.permissionDenied"},
		{"unsupported game", reporter, ReportInput{OriginName: "Alice", Game: "cod", CheatMethods: "aimbot", Description: "x"}, apperr.KindValidation, "report.bad"},
		{"no valid cheat method", reporter, ReportInput{OriginName: "Alice", Game: "bf1", CheatMethods: "lag", Description: "x"}, apperr.KindValidation, "report.bad"},
		{"empty description", reporter, ReportInput{OriginName: "Alice", Game: "bf1", CheatMethods: "aimbot", Description: "  "}, apperr.KindValidation, "report.bad"},
		{"unresolvable identity", reporter, ReportInput{OriginName: "Ghost", Game: "bf1", CheatMethods: "aimbot", Description: "x"}, apperr.KindNotFound, "report.notFound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ReportPlayer(ctx, tt.actor, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.code, apperr.CodeOf(err, ""))
		})
	}

	_, err := e.store.GetPlayerByOriginUserID(ctx, "1001")
	assert.ErrorIs(t, err, storage.ErrNotFound, "no failure may mutate state")
}

func TestJudge_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	reporter := e.user(t, "reporter", "")
	admin := e.user(t, "admin", "", models.PrivilegeAdmin)
	super := e.user(t, "super", "", models.PrivilegeSuper)

	rep, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	id := rep.Player.ID

	_, err = e.svc.Judge(ctx, admin, JudgeInput{PlayerID: id, Action: models.ActionGuilt, Content: "no tags"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.svc.Judge(ctx, reporter, JudgeInput{PlayerID: id, Action: models.ActionDiscuss, Content: "me too"})
	assert.ErrorIs(t, err, apperr.ErrPermission)

	_, err = e.svc.Judge(ctx, admin, JudgeInput{PlayerID: id, Action: models.ActionKill, CheatMethods: "aimbot", Content: "kill"})
	assert.ErrorIs(t, err, apperr.ErrPermission)

	_, err = e.svc.Judge(ctx, admin, JudgeInput{PlayerID: id, Action: models.ActionReport, Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.svc.Judge(ctx, admin, JudgeInput{PlayerID: 999, Action: models.ActionDiscuss, Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, err := e.svc.GetPlayer(ctx, PlayerQuery{ID: id})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspect, p.Status)
	assert.Equal(t, 1, p.CommentsNum, "rejected judgements leave the case untouched")

	res, err := e.svc.Judge(ctx, super, JudgeInput{PlayerID: id, Action: models.ActionKill, CheatMethods: "aimbot,wallhack", Content: "kill"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBanned, res.Player.Status)
	assert.Equal(t, "aimbot,wallhack", res.Player.CheatMethods)

	again, err := e.svc.Judge(ctx, super, JudgeInput{PlayerID: id, Action: models.ActionKill, CheatMethods: "aimbot", Content: "again"})
	require.NoError(t, err)
	assert.False(t, again.StatusChanged)

	judged := e.waitEvents(t, eventbus.KindJudge, 2)
	assert.False(t, judged[1].Payload.(eventbus.JudgePayload).StatusChanged)
}

func TestBanAppeal_ReviewQuorum(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	owner := e.user(t, "alice-account", "1001")
	reporter := e.user(t, "reporter", "")
	admins := []Actor{
		e.user(t, "a1", "", models.PrivilegeAdmin),
		e.user(t, "a2", "", models.PrivilegeAdmin),
		e.user(t, "a3", "", models.PrivilegeSuper),
		e.user(t, "a4", "", models.PrivilegeRoot),
	}

	rep, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	appeal, err := e.svc.BanAppeal(ctx, owner, rep.Player.ID, "I am innocent")
	require.NoError(t, err)
	e.waitEvents(t, eventbus.KindBanAppeal, 1)

	announce := func() []models.Message {
		msgs, _ := e.svc.Messages(ctx, admins[0], BoxAnnounce, 0, 0)
		return msgs
	}
	require.Eventually(t, func() bool { return len(announce()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = e.svc.ViewBanAppeal(ctx, reporter, appeal.ID, models.AppealPending)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	for _, a := range admins[:2] {
		_, err := e.svc.ViewBanAppeal(ctx, a, appeal.ID, models.AppealPending)
		require.NoError(t, err)
	}
	_, err = e.svc.ViewBanAppeal(ctx, admins[0], appeal.ID, models.AppealPending)
	require.NoError(t, err, "repeat review by the same admin")
	assert.Empty(t, e.eventsOf(eventbus.KindViewBanAppeal))

	third, err := e.svc.ViewBanAppeal(ctx, admins[2], appeal.ID, models.AppealClose)
	require.NoError(t, err)
	assert.Len(t, third.ViewedAdminIDs, 3)
	assert.Equal(t, models.AppealClose, third.Status)
	e.waitEvents(t, eventbus.KindViewBanAppeal, 1)
	require.Eventually(t, func() bool { return len(announce()) == 0 }, time.Second, 5*time.Millisecond)

	fourth, err := e.svc.ViewBanAppeal(ctx, admins[3], appeal.ID, models.AppealClose)
	require.NoError(t, err)
	assert.Len(t, fourth.ViewedAdminIDs, 3)

	// Flush the bus with a later event before asserting nothing else fired.
	_, err = e.svc.BanAppeal(ctx, owner, rep.Player.ID, "second appeal")
	require.NoError(t, err)
	e.waitEvents(t, eventbus.KindBanAppeal, 2)
	assert.Len(t, e.eventsOf(eventbus.KindViewBanAppeal), 1)
}

func TestReply_TargetsMustBelongToPlayer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	e.ids.add(models.Profile{Name: "Bob", UserID: "1002"})
	reporter := e.user(t, "reporter", "")
	replier := e.user(t, "replier", "")

	alice, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	bob, err := e.svc.ReportPlayer(ctx, reporter, ReportInput{OriginName: "Bob", Game: "bfv", CheatMethods: "stealth", Description: "invisible"})
	require.NoError(t, err)

	typ, reportID := models.CommentReport, alice.Report.ID
	_, err = e.svc.Reply(ctx, replier, ReplyInput{PlayerID: bob.Player.ID, ToCommentType: &typ, ToCommentID: &reportID, Content: "wrong case"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	reply, err := e.svc.Reply(ctx, replier, ReplyInput{PlayerID: alice.Player.ID, ToCommentType: &typ, ToCommentID: &reportID, Content: "agreed"})
	require.NoError(t, err)
	assert.NotZero(t, reply.ID)

	p, err := e.svc.GetPlayer(ctx, PlayerQuery{ID: alice.Player.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, p.CommentsNum)

	require.Eventually(t, func() bool { return len(e.inbox(reporter.UserID)) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.MessageReply, e.inbox(reporter.UserID)[0].Type)

	_, err = e.svc.Reply(ctx, replier, ReplyInput{PlayerID: alice.Player.ID, ToCommentType: &typ, Content: "half target"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTimelineAndViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001", PersonaID: "2001"})
	reporter := e.user(t, "reporter", "")
	admin := e.user(t, "admin", "", models.PrivilegeAdmin)

	rep, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)
	_, err = e.svc.Judge(ctx, admin, JudgeInput{PlayerID: rep.Player.ID, Action: models.ActionDiscuss, Content: "looking"})
	require.NoError(t, err)
	_, err = e.svc.Reply(ctx, reporter, ReplyInput{PlayerID: rep.Player.ID, Content: "thanks"})
	require.NoError(t, err)

	tl, err := e.svc.Timeline(ctx, rep.Player.ID)
	require.NoError(t, err)
	assert.Len(t, tl.Reports, 1)
	assert.Len(t, tl.Judgements, 1)
	assert.Len(t, tl.Replies, 1)
	assert.Empty(t, tl.BanAppeals)

	require.NoError(t, e.svc.RecordView(ctx, rep.Player.ID))
	p, err := e.svc.GetPlayer(ctx, PlayerQuery{PersonaID: "2001"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ViewNum)
	assert.Equal(t, models.StatusDiscuss, p.Status)

	_, err = e.svc.Timeline(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.svc.GetPlayer(ctx, PlayerQuery{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRefreshPlayer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ids.add(models.Profile{Name: "Alice", UserID: "1001"})
	reporter := e.user(t, "reporter", "")

	rep, err := e.svc.ReportPlayer(ctx, reporter, aliceReport())
	require.NoError(t, err)

	e.ids.add(models.Profile{Name: "Alicia", UserID: "1001", PersonaID: "2002"})
	p, err := e.svc.RefreshPlayer(ctx, reporter, rep.Player.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", p.OriginName)
	assert.Equal(t, "2002", p.OriginPersonaID)

	e.waitEvents(t, eventbus.KindProfileRefresh, 1)
	e.waitEvents(t, eventbus.KindNameTracker, 2)
}
