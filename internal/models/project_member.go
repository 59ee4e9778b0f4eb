package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectRole string

const (
	RoleOwner  ProjectRole = "OWNER"
	RoleAdmin  ProjectRole = "ADMIN"
	RoleMember ProjectRole = "MEMBER"
	RoleViewer ProjectRole = "VIEWER"
)

type ProjectMember struct {
	ProjectID uuid.UUID   `gorm:"type:uuid;primarykey" json:"project_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
