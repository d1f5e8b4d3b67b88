package storage

import (
	"context"
	"errors"
	"time"

	"cheatreport/backend/internal/models"
)

// ErrNotFound is returned by every lookup that matches no valid row.
var ErrNotFound = errors.New("record not found")

type PlayerStore interface {
	// UpsertPlayer inserts the player or merges up into the existing row with
	// the same OriginUserID, returning the row as stored afterwards.
	UpsertPlayer(ctx context.Context, up models.PlayerUpsert) (*models.Player, error)
	GetPlayer(ctx context.Context, id uint) (*models.Player, error)
	GetPlayerByOriginUserID(ctx context.Context, originUserID string) (*models.Player, error)
	GetPlayerByPersonaID(ctx context.Context, personaID string) (*models.Player, error)
	SetPlayerStatus(ctx context.Context, id uint, status models.Status) error
	// ApplyJudgement sets the status, adds one to CommentsNum and, when
	// cheatMethods is non-empty, replaces the player's cheat methods.
	ApplyJudgement(ctx context.Context, id uint, status models.Status, cheatMethods string) (*models.Player, error)
	UpdatePlayerProfile(ctx context.Context, id uint, p models.Profile, avatarLink string) (*models.Player, error)
	IncrementComments(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uint) (*models.Report, error)
	ListReports(ctx context.Context, playerID uint) ([]models.Report, error)
}

type JudgementStore interface {
	CreateJudgement(ctx context.Context, j *models.Judgement) error
	GetJudgement(ctx context.Context, id uint) (*models.Judgement, error)
	ListJudgements(ctx context.Context, playerID uint) ([]models.Judgement, error)
}

type ReplyStore interface {
	CreateReply(ctx context.Context, r *models.Reply) error
	GetReply(ctx context.Context, id uint) (*models.Reply, error)
	ListReplies(ctx context.Context, playerID uint) ([]models.Reply, error)
}

type BanAppealStore interface {
	CreateBanAppeal(ctx context.Context, a *models.BanAppeal) error
	GetBanAppeal(ctx context.Context, id uint) (*models.BanAppeal, error)
	ListBanAppeals(ctx context.Context, playerID uint) ([]models.BanAppeal, error)
	// ReviewBanAppeal atomically sets the appeal status and records adminID
	// as a reviewer, keeping at most limit distinct reviewers. added reports
	// whether the reviewer list grew.
	ReviewBanAppeal(ctx context.Context, id uint, adminID string, status models.AppealStatus, limit int) (appeal *models.BanAppeal, added bool, err error)
}

// MessageFilter selects inbox messages. Exactly one of ToUserID, ByUserID or
// Broadcast is expected to be set.
type MessageFilter struct {
	ToUserID  *string
	ByUserID  *string
	Broadcast bool
	Types     []models.MessageType
	Limit     int
	Offset    int
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
	ListMessages(ctx context.Context, f MessageFilter) ([]models.Message, error)
	SetMessageRead(ctx context.Context, id uint, read bool) error
	DeleteMessage(ctx context.Context, id uint) error
	// DeleteMessagesByRef removes every message of type typ about ref.
	DeleteMessagesByRef(ctx context.Context, typ models.MessageType, ref string) (int64, error)
}

type NameLogStore interface {
	// LatestNameLog returns the current row of an identity or ErrNotFound.
	LatestNameLog(ctx context.Context, originUserID string) (*models.NameLog, error)
	ExtendNameLog(ctx context.Context, id uint, to time.Time) error
	// RotateNameLog closes prev (when non-nil) at next.FromTime and inserts
	// next as the current row, in one transaction.
	RotateNameLog(ctx context.Context, prev *models.NameLog, next *models.NameLog) error
	NameHistory(ctx context.Context, originUserID string) ([]models.NameLog, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByOriginUserID(ctx context.Context, originUserID string) (*models.User, error)
	SetUserPrivileges(ctx context.Context, id string, privileges models.PrivilegeSet) error
}

// Store is the full persistence contract of the service.
type Store interface {
	PlayerStore
	ReportStore
	JudgementStore
	ReplyStore
	BanAppealStore
	MessageStore
	NameLogStore
	UserStore
}
