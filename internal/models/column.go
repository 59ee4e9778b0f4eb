package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Column struct {
	ID          uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Color       string    `gorm:"type:varchar(20)" json:"color"`
	Position    int       `gorm:"not null" json:"position"`
	WIPLimit    *int      `gorm:"column:wip_limit" json:"wip_limit,omitempty"`
	IsCollapsed bool      `gorm:"not null;default:false" json:"is_collapsed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Board Board  `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	Tasks []Task `gorm:"foreignKey:ColumnID" json:"tasks,omitempty"`
}

func (c *Column) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
