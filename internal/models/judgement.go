package models

import "time"

// Judgement is a staff decision on a player's case.
type Judgement struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ByUserID       string    `gorm:"type:text;not null;index" json:"byUserId"`
	ToPlayerID     uint      `gorm:"not null;index" json:"toPlayerId"`
	ToOriginUserID string    `gorm:"type:text;not null;index" json:"toOriginUserId"`
	CheatMethods   string    `gorm:"type:text" json:"cheatMethods"`
	Action         Action    `gorm:"type:text;not null" json:"action"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Valid          bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt      time.Time `json:"createTime"`
}
