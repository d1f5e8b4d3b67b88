package models

import "time"

// Report is one user's accusation against a player. Reports are never
// edited; they are soft-invalidated through Valid.
type Report struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ByUserID       string    `gorm:"type:text;not null;index" json:"byUserId"`
	ToPlayerID     uint      `gorm:"not null;index" json:"toPlayerId"`
	ToOriginName   string    `gorm:"type:text;not null" json:"toOriginName"`
	ToOriginUserID string    `gorm:"type:text;not null;index" json:"toOriginUserId"`
	Game           string    `gorm:"type:text;not null" json:"game"`
	CheatMethods   string    `gorm:"type:text;not null" json:"cheatMethods"`
	VideoLink      string    `gorm:"type:text" json:"videoLink"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Valid          bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt      time.Time `json:"createTime"`
}
