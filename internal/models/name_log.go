package models

import "time"

// NameLog records one name an identity carried over [FromTime, ToTime].
// Only the latest row of an identity is Current.
type NameLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OriginName      string    `gorm:"type:text;not null" json:"originName"`
	OriginUserID    string    `gorm:"type:text;not null;index" json:"originUserId"`
	OriginPersonaID string    `gorm:"type:text" json:"originPersonaId"`
	FromTime        time.Time `gorm:"not null" json:"fromTime"`
	ToTime          time.Time `gorm:"not null;index" json:"toTime"`
	Current         bool      `gorm:"column:is_current;not null;default:true" json:"current"`
}
