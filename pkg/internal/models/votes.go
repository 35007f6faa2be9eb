package models

import (
	"time"

	"gorm.io/datatypes"
)

type VoteGroup struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"column:group_name;size:255;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (VoteGroup) TableName() string {
	return "vote_groups"
}

type Vote struct {
	ID        uint                        `json:"id" gorm:"primaryKey"`
	CreatorID string                      `json:"creator_id" gorm:"size:32;not null;index"`
	Name      string                      `json:"name" gorm:"column:vote_name;size:255;not null"`
	Options   datatypes.JSONSlice[string] `json:"options" gorm:"not null"`
	GroupID   *uint                       `json:"group_id" gorm:"index"`
	Group     *VoteGroup                  `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	IsActive  bool                        `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time                   `json:"created_at"`
	ClosedAt  *time.Time                  `json:"closed_at"`
}

func (Vote) TableName() string {
	return "votes"
}

// Ballot is one user's choice on one vote. The (vote_id, user_id) unique
// index is what prevents double voting, including concurrent attempts.
type Ballot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VoteID    uint      `json:"vote_id" gorm:"not null;uniqueIndex:idx_votes_users_vote_user"`
	Vote      *Vote     `json:"-" gorm:"foreignKey:VoteID"`
	UserID    string    `json:"user_id" gorm:"size:32;not null;uniqueIndex:idx_votes_users_vote_user"`
	Choice    string    `json:"choice" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Ballot) TableName() string {
	return "votes_users"
}
