package models

import "time"

// CommentType names the kind of item a reply points at.
type CommentType int

const (
	CommentReply CommentType = iota
	CommentReport
	CommentJudgement
	CommentBanAppeal
)

func (t CommentType) IsValid() bool {
	return t >= CommentReply && t <= CommentBanAppeal
}

// Reply is a comment on a player's timeline, optionally answering one item.
type Reply struct {
	ID            uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	ByUserID      string       `gorm:"type:text;not null;index" json:"byUserId"`
	ToPlayerID    uint         `gorm:"not null;index" json:"toPlayerId"`
	ToCommentType *CommentType `json:"toCommentType"`
	ToCommentID   *uint        `json:"toCommentId"`
	Content       string       `gorm:"type:text;not null" json:"content"`
	Valid         bool         `gorm:"not null;default:true" json:"-"`
	CreatedAt     time.Time    `json:"createTime"`
}

// Target returns the referenced item, if the reply answers one.
func (r *Reply) Target() (CommentType, uint, bool) {
	if r.ToCommentType == nil || r.ToCommentID == nil {
		return 0, 0, false
	}
	return *r.ToCommentType, *r.ToCommentID, true
}
