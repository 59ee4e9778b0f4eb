package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardType string

const (
	BoardTypeKanban BoardType = "KANBAN"
	BoardTypeScrum  BoardType = "SCRUM"
)

type Board struct {
	ID        uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Type      BoardType `gorm:"type:varchar(20);not null;default:'KANBAN'" json:"type"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Columns []Column `gorm:"foreignKey:BoardID" json:"columns,omitempty"`
}

func (b *Board) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
