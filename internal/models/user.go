package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is a site account. OriginUserID binds it to the external identity it
// plays as, which is how notifications about that identity reach the owner.
type User struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"type:text;uniqueIndex" json:"username"`
	OriginUserID *string        `gorm:"type:text;uniqueIndex" json:"originUserId,omitempty"`
	Privileges   pq.StringArray `gorm:"type:text[]" json:"privilege"`
	Language     string         `gorm:"type:text;not null;default:'en'" json:"language"`
	AllowDM      bool           `gorm:"not null;default:false" json:"allowDM"`
}

// BeforeCreate is a GORM hook that assigns a UUID when ID is empty and
// defaults the privilege set to {normal}.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if len(u.Privileges) == 0 {
		u.Privileges = pq.StringArray{string(PrivilegeNormal)}
	}
	return
}

// PrivilegeSet returns the user's privileges as a set.
func (u *User) PrivilegeSet() PrivilegeSet {
	return ParsePrivileges(u.Privileges)
}

// SetPrivileges stores s on the user.
func (u *User) SetPrivileges(s PrivilegeSet) {
	u.Privileges = pq.StringArray(s.Strings())
}
