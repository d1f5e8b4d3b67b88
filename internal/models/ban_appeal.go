package models

import (
	"time"

	"github.com/lib/pq"
)

// AppealStatus is the review state of a ban appeal.
type AppealStatus string

const (
	AppealOpen    AppealStatus = "open"
	AppealPending AppealStatus = "pending"
	AppealClose   AppealStatus = "close"
)

func (s AppealStatus) IsValid() bool {
	return s == AppealOpen || s == AppealPending || s == AppealClose
}

// BanAppeal is a request to reconsider a banned player's case.
type BanAppeal struct {
	ID         uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	ByUserID   string       `gorm:"type:text;not null;index" json:"byUserId"`
	ToPlayerID uint         `gorm:"not null;index" json:"toPlayerId"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	Status     AppealStatus `gorm:"type:text;not null;default:'open'" json:"status"`
	// ViewedAdminIDs holds the distinct staff reviewers, at most the review quorum.
	ViewedAdminIDs pq.StringArray `gorm:"type:text[]" json:"viewedAdminIds"`
	Valid          bool           `gorm:"not null;default:true" json:"-"`
	CreatedAt      time.Time      `json:"createTime"`
}

// AddReviewer records adminID as a reviewer unless already recorded or the
// list already holds limit entries. It reports whether the list changed.
func (a *BanAppeal) AddReviewer(adminID string, limit int) bool {
	for _, id := range a.ViewedAdminIDs {
		if id == adminID {
			return false
		}
	}
	if len(a.ViewedAdminIDs) >= limit {
		return false
	}
	a.ViewedAdminIDs = append(a.ViewedAdminIDs, adminID)
	return true
}
