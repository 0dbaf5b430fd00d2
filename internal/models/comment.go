package models

import "time"

type Comment struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	TaskID          uint64    `gorm:"not null;index:idx_comments_task_created,priority:1" json:"task_id"`
	UserID          uint64    `gorm:"not null" json:"user_id"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	ParentCommentID *uint64   `json:"parent_comment_id"`
	CreatedAt       time.Time `gorm:"index:idx_comments_task_created,priority:2" json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:UserID" json:"-"`
}
