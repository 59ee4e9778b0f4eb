package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment forms a two-level thread: root comments have a nil ParentID and
// replies point at a comment on the same task.
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	TaskID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Mentions  string     `gorm:"type:text" json:"mentions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Author  User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
