// Package storage persists cases, their records and side-effect messages.
//
// Service is the Postgres implementation used in production; Memory is an
// in-process implementation of the same contract for tests and local runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cheatreport/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service implements Store on top of GORM.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates every table the service owns.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Player{},
		&models.Report{},
		&models.Judgement{},
		&models.Reply{},
		&models.BanAppeal{},
		&models.Message{},
		&models.NameLog{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// gamesMerge appends the game to players.games unless it is already listed.
const gamesMerge = `CASE
	WHEN players.games = '' THEN ?
	WHEN ? = ANY(string_to_array(players.games, ',')) THEN players.games
	ELSE players.games || ',' || ?
END`

func (s *Service) UpsertPlayer(ctx context.Context, up models.PlayerUpsert) (*models.Player, error) {
	now := time.Now()
	p := models.Player{
		OriginName:      up.Profile.Name,
		OriginUserID:    up.Profile.UserID,
		OriginPersonaID: up.Profile.PersonaID,
		Games:           up.Game,
		AvatarLink:      up.AvatarLink,
		CommentsNum:     up.CommentsDelta,
		Valid:           true,
	}
	err := s.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "origin_user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"origin_name":       up.Profile.Name,
				"origin_persona_id": up.Profile.PersonaID,
				"avatar_link":       gorm.Expr("COALESCE(NULLIF(?, ''), players.avatar_link)", up.AvatarLink),
				"games":             gorm.Expr(gamesMerge, up.Game, up.Game, up.Game),
				"comments_num":      gorm.Expr("players.comments_num + ?", up.CommentsDelta),
				"updated_at":        now,
			}),
		},
		clause.Returning{},
	).Create(&p).Error
	if err != nil {
		return nil, fmt.Errorf("upsert player %s: %w", up.Profile.UserID, err)
	}
	return &p, nil
}

func (s *Service) GetPlayer(ctx context.Context, id uint) (*models.Player, error) {
	var p models.Player
	if err := s.DB.WithContext(ctx).Where("valid = ?", true).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Service) GetPlayerByOriginUserID(ctx context.Context, originUserID string) (*models.Player, error) {
	var p models.Player
	err := s.DB.WithContext(ctx).Where("origin_user_id = ? AND valid = ?", originUserID, true).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Service) GetPlayerByPersonaID(ctx context.Context, personaID string) (*models.Player, error) {
	var p models.Player
	err := s.DB.WithContext(ctx).Where("origin_persona_id = ? AND valid = ?", personaID, true).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Service) SetPlayerStatus(ctx context.Context, id uint, status models.Status) error {
	return s.updatePlayer(ctx, id, map[string]interface{}{"status": status})
}

func (s *Service) ApplyJudgement(ctx context.Context, id uint, status models.Status, cheatMethods string) (*models.Player, error) {
	updates := map[string]interface{}{
		"status":       status,
		"comments_num": gorm.Expr("comments_num + 1"),
	}
	if cheatMethods != "" {
		updates["cheat_methods"] = cheatMethods
	}
	if err := s.updatePlayer(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, id)
}

func (s *Service) UpdatePlayerProfile(ctx context.Context, id uint, p models.Profile, avatarLink string) (*models.Player, error) {
	updates := map[string]interface{}{
		"origin_name":       p.Name,
		"origin_persona_id": p.PersonaID,
	}
	if avatarLink != "" {
		updates["avatar_link"] = avatarLink
	}
	if err := s.updatePlayer(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, id)
}

func (s *Service) IncrementComments(ctx context.Context, id uint) error {
	return s.updatePlayer(ctx, id, map[string]interface{}{"comments_num": gorm.Expr("comments_num + 1")})
}

func (s *Service) IncrementViews(ctx context.Context, id uint) error {
	return s.updatePlayer(ctx, id, map[string]interface{}{"view_num": gorm.Expr("view_num + 1")})
}

func (s *Service) updatePlayer(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := s.DB.WithContext(ctx).Model(&models.Player{}).Where("id = ? AND valid = ?", id, true).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update player %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateReport(ctx context.Context, r *models.Report) error {
	r.Valid = true
	return s.DB.WithContext(ctx).Create(r).Error
}

func (s *Service) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	var r models.Report
	if err := s.DB.WithContext(ctx).Where("valid = ?", true).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Service) ListReports(ctx context.Context, playerID uint) ([]models.Report, error) {
	var out []models.Report
	err := s.DB.WithContext(ctx).
		Where("to_player_id = ? AND valid = ?", playerID, true).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

func (s *Service) CreateJudgement(ctx context.Context, j *models.Judgement) error {
	j.Valid = true
	return s.DB.WithContext(ctx).Create(j).Error
}

func (s *Service) GetJudgement(ctx context.Context, id uint) (*models.Judgement, error) {
	var j models.Judgement
	if err := s.DB.WithContext(ctx).Where("valid = ?", true).First(&j, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &j, nil
}

func (s *Service) ListJudgements(ctx context.Context, playerID uint) ([]models.Judgement, error) {
	var out []models.Judgement
	err := s.DB.WithContext(ctx).
		Where("to_player_id = ? AND valid = ?", playerID, true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (s *Service) CreateReply(ctx context.Context, r *models.Reply) error {
	r.Valid = true
	return s.DB.WithContext(ctx).Create(r).Error
}

func (s *Service) GetReply(ctx context.Context, id uint) (*models.Reply, error) {
	var r models.Reply
	if err := s.DB.WithContext(ctx).Where("valid = ?", true).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Service) ListReplies(ctx context.Context, playerID uint) ([]models.Reply, error) {
	var out []models.Reply
	err := s.DB.WithContext(ctx).
		Where("to_player_id = ? AND valid = ?", playerID, true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (s *Service) CreateBanAppeal(ctx context.Context, a *models.BanAppeal) error {
	a.Valid = true
	if a.Status == "" {
		a.Status = models.AppealOpen
	}
	return s.DB.WithContext(ctx).Create(a).Error
}

func (s *Service) GetBanAppeal(ctx context.Context, id uint) (*models.BanAppeal, error) {
	var a models.BanAppeal
	if err := s.DB.WithContext(ctx).Where("valid = ?", true).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Service) ListBanAppeals(ctx context.Context, playerID uint) ([]models.BanAppeal, error) {
	var out []models.BanAppeal
	err := s.DB.WithContext(ctx).
		Where("to_player_id = ? AND valid = ?", playerID, true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ReviewBanAppeal locks the appeal row so concurrent reviews cannot both
// claim the last quorum slot.
func (s *Service) ReviewBanAppeal(ctx context.Context, id uint, adminID string, status models.AppealStatus, limit int) (*models.BanAppeal, bool, error) {
	var (
		appeal models.BanAppeal
		added  bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("valid = ?", true).
			First(&appeal, id).Error
		if err != nil {
			return notFound(err)
		}
		added = appeal.AddReviewer(adminID, limit)
		appeal.Status = status
		return tx.Model(&appeal).Updates(map[string]interface{}{
			"status":           status,
			"viewed_admin_ids": appeal.ViewedAdminIDs,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &appeal, added, nil
}

func (s *Service) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s *Service) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := s.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *Service) ListMessages(ctx context.Context, f MessageFilter) ([]models.Message, error) {
	q := s.DB.WithContext(ctx).Model(&models.Message{})
	switch {
	case f.ToUserID != nil:
		q = q.Where("to_user_id = ?", *f.ToUserID)
	case f.ByUserID != nil:
		q = q.Where("by_user_id = ?", *f.ByUserID)
	case f.Broadcast:
		q = q.Where("to_user_id IS NULL")
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []models.Message
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *Service) SetMessageRead(ctx context.Context, id uint, read bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("have_read", read)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteMessage(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteMessagesByRef(ctx context.Context, typ models.MessageType, ref string) (int64, error) {
	res := s.DB.WithContext(ctx).Where("type = ? AND ref = ?", typ, ref).Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

func (s *Service) LatestNameLog(ctx context.Context, originUserID string) (*models.NameLog, error) {
	var l models.NameLog
	err := s.DB.WithContext(ctx).
		Where("origin_user_id = ? AND is_current = ?", originUserID, true).
		Order("to_time desc").
		First(&l).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Service) ExtendNameLog(ctx context.Context, id uint, to time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.NameLog{}).Where("id = ?", id).Update("to_time", to).Error
}

func (s *Service) RotateNameLog(ctx context.Context, prev *models.NameLog, next *models.NameLog) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if prev != nil {
			err := tx.Model(&models.NameLog{}).Where("id = ?", prev.ID).Updates(map[string]interface{}{
				"is_current": false,
				"to_time":    next.FromTime,
			}).Error
			if err != nil {
				return err
			}
		}
		next.Current = true
		return tx.Create(next).Error
	})
}

func (s *Service) NameHistory(ctx context.Context, originUserID string) ([]models.NameLog, error) {
	var out []models.NameLog
	err := s.DB.WithContext(ctx).Where("origin_user_id = ?", originUserID).Order("from_time asc").Find(&out).Error
	return out, err
}

func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Create(u).Error
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) GetUserByOriginUserID(ctx context.Context, originUserID string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("origin_user_id = ?", originUserID).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) SetUserPrivileges(ctx context.Context, id string, privileges models.PrivilegeSet) error {
	var u models.User
	u.SetPrivileges(privileges)
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("privileges", u.Privileges)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Service)(nil)
