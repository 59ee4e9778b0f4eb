package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Key         string     `gorm:"type:varchar(10);uniqueIndex;not null" json:"key"`
	Description string     `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	IsArchived  bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Boards  []Board         `gorm:"foreignKey:ProjectID" json:"boards,omitempty"`
	Labels  []Label         `gorm:"foreignKey:ProjectID" json:"labels,omitempty"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectCounter backs per-project task key allocation. The row is updated
// with a single atomic increment inside the task-create transaction.
type ProjectCounter struct {
	ProjectID  uuid.UUID `gorm:"type:uuid;primarykey" json:"project_id"`
	LastNumber int64     `gorm:"not null;default:0" json:"last_number"`
}
