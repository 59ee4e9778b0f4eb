package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subtask struct {
	ID          uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	Title       string     `gorm:"type:varchar(500);not null" json:"title"`
	Position    int        `gorm:"not null" json:"position"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedBy *uuid.UUID `gorm:"type:uuid" json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (s *Subtask) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
