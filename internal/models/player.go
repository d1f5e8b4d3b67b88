package models

import "time"

// Player is the case record of one external identity. There is exactly one
// row per OriginUserID; reports and judgements mutate it in place.
type Player struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OriginName      string `gorm:"type:text;not null;index" json:"originName"`
	OriginUserID    string `gorm:"type:text;not null;uniqueIndex" json:"originUserId"`
	OriginPersonaID string `gorm:"type:text;index" json:"originPersonaId"`
	// Games and CheatMethods are comma-joined sets.
	Games        string    `gorm:"type:text;not null;default:''" json:"games"`
	CheatMethods string    `gorm:"type:text;not null;default:''" json:"cheatMethods"`
	AvatarLink   string    `gorm:"type:text" json:"avatarLink"`
	ViewNum      int       `gorm:"not null;default:0" json:"viewNum"`
	CommentsNum  int       `gorm:"not null;default:0" json:"commentsNum"`
	Status       Status    `gorm:"not null;default:0;index" json:"status"`
	Valid        bool      `gorm:"not null;default:true" json:"-"`
	CreatedAt    time.Time `json:"createTime"`
	UpdatedAt    time.Time `json:"updateTime"`

	History []NameLog `gorm:"-" json:"history,omitempty"`
}

// Profile is a canonical external identity as returned by a lookup source.
type Profile struct {
	Name      string `json:"username"`
	UserID    string `json:"userId"`
	PersonaID string `json:"personaId"`
	Avatar    string `json:"avatar,omitempty"`
}

// PlayerUpsert describes one report's effect on a player row. On conflict
// with an existing OriginUserID the name, persona and avatar are overwritten,
// Game joins the games set, and CommentsDelta is added to CommentsNum.
type PlayerUpsert struct {
	Profile       Profile
	Game          string
	AvatarLink    string
	CommentsDelta int
}
