package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"cheatreport/backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Memory is an in-process Store. Every method returns copies, so callers
// never share state with the store.
type Memory struct {
	mu     sync.Mutex
	nextID uint

	players    map[uint]*models.Player
	reports    map[uint]*models.Report
	judgements map[uint]*models.Judgement
	replies    map[uint]*models.Reply
	appeals    map[uint]*models.BanAppeal
	messages   map[uint]*models.Message
	nameLogs   map[uint]*models.NameLog
	users      map[string]*models.User
}

func NewMemory() *Memory {
	return &Memory{
		players:    make(map[uint]*models.Player),
		reports:    make(map[uint]*models.Report),
		judgements: make(map[uint]*models.Judgement),
		replies:    make(map[uint]*models.Reply),
		appeals:    make(map[uint]*models.BanAppeal),
		messages:   make(map[uint]*models.Message),
		nameLogs:   make(map[uint]*models.NameLog),
		users:      make(map[string]*models.User),
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) UpsertPlayer(_ context.Context, up models.PlayerUpsert) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, p := range m.players {
		if p.OriginUserID != up.Profile.UserID {
			continue
		}
		p.OriginName = up.Profile.Name
		p.OriginPersonaID = up.Profile.PersonaID
		if up.AvatarLink != "" {
			p.AvatarLink = up.AvatarLink
		}
		p.Games = models.AddToSet(p.Games, up.Game)
		p.CommentsNum += up.CommentsDelta
		p.UpdatedAt = now
		out := *p
		return &out, nil
	}
	p := &models.Player{
		ID:              m.id(),
		OriginName:      up.Profile.Name,
		OriginUserID:    up.Profile.UserID,
		OriginPersonaID: up.Profile.PersonaID,
		Games:           up.Game,
		AvatarLink:      up.AvatarLink,
		CommentsNum:     up.CommentsDelta,
		Status:          models.StatusNone,
		Valid:           true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.players[p.ID] = p
	out := *p
	return &out, nil
}

func (m *Memory) GetPlayer(_ context.Context, id uint) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok || !p.Valid {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *Memory) findPlayer(match func(*models.Player) bool) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.Valid && match(p) {
			out := *p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetPlayerByOriginUserID(_ context.Context, originUserID string) (*models.Player, error) {
	return m.findPlayer(func(p *models.Player) bool { return p.OriginUserID == originUserID })
}

func (m *Memory) GetPlayerByPersonaID(_ context.Context, personaID string) (*models.Player, error) {
	return m.findPlayer(func(p *models.Player) bool { return p.OriginPersonaID == personaID })
}

func (m *Memory) updatePlayer(id uint, fn func(*models.Player)) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok || !p.Valid {
		return nil, ErrNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

func (m *Memory) SetPlayerStatus(_ context.Context, id uint, status models.Status) error {
	_, err := m.updatePlayer(id, func(p *models.Player) { p.Status = status })
	return err
}

func (m *Memory) ApplyJudgement(_ context.Context, id uint, status models.Status, cheatMethods string) (*models.Player, error) {
	return m.updatePlayer(id, func(p *models.Player) {
		p.Status = status
		p.CommentsNum++
		if cheatMethods != "" {
			p.CheatMethods = cheatMethods
		}
	})
}

func (m *Memory) UpdatePlayerProfile(_ context.Context, id uint, prof models.Profile, avatarLink string) (*models.Player, error) {
	return m.updatePlayer(id, func(p *models.Player) {
		p.OriginName = prof.Name
		p.OriginPersonaID = prof.PersonaID
		if avatarLink != "" {
			p.AvatarLink = avatarLink
		}
	})
}

func (m *Memory) IncrementComments(_ context.Context, id uint) error {
	_, err := m.updatePlayer(id, func(p *models.Player) { p.CommentsNum++ })
	return err
}

func (m *Memory) IncrementViews(_ context.Context, id uint) error {
	_, err := m.updatePlayer(id, func(p *models.Player) { p.ViewNum++ })
	return err
}

func (m *Memory) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID, r.Valid, r.CreatedAt = m.id(), true, time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *Memory) GetReport(_ context.Context, id uint) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || !r.Valid {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *Memory) ListReports(_ context.Context, playerID uint) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Report
	for _, r := range m.reports {
		if r.Valid && r.ToPlayerID == playerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateJudgement(_ context.Context, j *models.Judgement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID, j.Valid, j.CreatedAt = m.id(), true, time.Now()
	cp := *j
	m.judgements[j.ID] = &cp
	return nil
}

func (m *Memory) GetJudgement(_ context.Context, id uint) (*models.Judgement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.judgements[id]
	if !ok || !j.Valid {
		return nil, ErrNotFound
	}
	out := *j
	return &out, nil
}

func (m *Memory) ListJudgements(_ context.Context, playerID uint) ([]models.Judgement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Judgement
	for _, j := range m.judgements {
		if j.Valid && j.ToPlayerID == playerID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (m *Memory) CreateReply(_ context.Context, r *models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID, r.Valid, r.CreatedAt = m.id(), true, time.Now()
	cp := *r
	m.replies[r.ID] = &cp
	return nil
}

func (m *Memory) GetReply(_ context.Context, id uint) (*models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replies[id]
	if !ok || !r.Valid {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *Memory) ListReplies(_ context.Context, playerID uint) ([]models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reply
	for _, r := range m.replies {
		if r.Valid && r.ToPlayerID == playerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) CreateBanAppeal(_ context.Context, a *models.BanAppeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID, a.Valid, a.CreatedAt = m.id(), true, time.Now()
	if a.Status == "" {
		a.Status = models.AppealOpen
	}
	cp := copyAppeal(a)
	m.appeals[a.ID] = &cp
	return nil
}

func copyAppeal(a *models.BanAppeal) models.BanAppeal {
	out := *a
	out.ViewedAdminIDs = append(pq.StringArray(nil), a.ViewedAdminIDs...)
	return out
}

func (m *Memory) GetBanAppeal(_ context.Context, id uint) (*models.BanAppeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appeals[id]
	if !ok || !a.Valid {
		return nil, ErrNotFound
	}
	out := copyAppeal(a)
	return &out, nil
}

func (m *Memory) ListBanAppeals(_ context.Context, playerID uint) ([]models.BanAppeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BanAppeal
	for _, a := range m.appeals {
		if a.Valid && a.ToPlayerID == playerID {
			out = append(out, copyAppeal(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) ReviewBanAppeal(_ context.Context, id uint, adminID string, status models.AppealStatus, limit int) (*models.BanAppeal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appeals[id]
	if !ok || !a.Valid {
		return nil, false, ErrNotFound
	}
	added := a.AddReviewer(adminID, limit)
	a.Status = status
	out := copyAppeal(a)
	return &out, added, nil
}

func (m *Memory) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID, msg.CreatedAt = m.id(), time.Now()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *Memory) GetMessage(_ context.Context, id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *msg
	return &out, nil
}

func (m *Memory) ListMessages(_ context.Context, f MessageFilter) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if matchMessage(msg, f) {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchMessage(msg *models.Message, f MessageFilter) bool {
	switch {
	case f.ToUserID != nil:
		if msg.ToUserID == nil || *msg.ToUserID != *f.ToUserID {
			return false
		}
	case f.ByUserID != nil:
		if msg.ByUserID == nil || *msg.ByUserID != *f.ByUserID {
			return false
		}
	case f.Broadcast:
		if msg.ToUserID != nil {
			return false
		}
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if msg.Type == t {
			return true
		}
	}
	return false
}

func (m *Memory) SetMessageRead(_ context.Context, id uint, read bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.HaveRead = read
	return nil
}

func (m *Memory) DeleteMessage(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

func (m *Memory) DeleteMessagesByRef(_ context.Context, typ models.MessageType, ref string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, msg := range m.messages {
		if msg.Type == typ && msg.Ref == ref {
			delete(m.messages, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) LatestNameLog(_ context.Context, originUserID string) (*models.NameLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.nameLogs {
		if l.OriginUserID == originUserID && l.Current {
			out := *l
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ExtendNameLog(_ context.Context, id uint, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.nameLogs[id]
	if !ok {
		return ErrNotFound
	}
	l.ToTime = to
	return nil
}

func (m *Memory) RotateNameLog(_ context.Context, prev *models.NameLog, next *models.NameLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev != nil {
		l, ok := m.nameLogs[prev.ID]
		if !ok {
			return ErrNotFound
		}
		l.Current = false
		l.ToTime = next.FromTime
	}
	next.ID, next.Current = m.id(), true
	cp := *next
	m.nameLogs[next.ID] = &cp
	return nil
}

func (m *Memory) NameHistory(_ context.Context, originUserID string) ([]models.NameLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NameLog
	for _, l := range m.nameLogs {
		if l.OriginUserID == originUserID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.Privileges) == 0 {
		u.Privileges = pq.StringArray{string(models.PrivilegeNormal)}
	}
	if u.Language == "" {
		u.Language = "en"
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) getUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			out := *u
			out.Privileges = append(pq.StringArray(nil), u.Privileges...)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	return m.getUser(func(u *models.User) bool { return u.ID == id })
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.getUser(func(u *models.User) bool { return u.Username == username })
}

func (m *Memory) GetUserByOriginUserID(_ context.Context, originUserID string) (*models.User, error) {
	return m.getUser(func(u *models.User) bool {
		return u.OriginUserID != nil && *u.OriginUserID == originUserID
	})
}

func (m *Memory) SetUserPrivileges(_ context.Context, id string, privileges models.PrivilegeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.SetPrivileges(privileges)
	return nil
}

var _ Store = (*Memory)(nil)
