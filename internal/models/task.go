package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusInReview   TaskStatus = "IN_REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primarykey" json:"id"`
	ColumnID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"column_id"`
	Key         string       `gorm:"type:varchar(30);uniqueIndex;not null" json:"key"`
	Title       string       `gorm:"type:varchar(500);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Position    int          `gorm:"not null" json:"position"`
	CreatorID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"creator_id"`
	DueDate     *time.Time   `gorm:"index" json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Column      Column         `gorm:"foreignKey:ColumnID" json:"column,omitempty"`
	Creator     User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignees   []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees,omitempty"`
	TaskLabels  []TaskLabel    `gorm:"foreignKey:TaskID" json:"labels,omitempty"`
	Watchers    []TaskWatcher  `gorm:"foreignKey:TaskID" json:"watchers,omitempty"`
	Subtasks    []Subtask      `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
	Comments    []Comment      `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []Attachment   `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TaskAssignee struct {
	TaskID     uuid.UUID `gorm:"type:uuid;primarykey" json:"task_id"`
	UserID     uuid.UUID `gorm:"type:uuid;primarykey" json:"user_id"`
	AssignedBy uuid.UUID `gorm:"type:uuid;not null" json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type TaskLabel struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primarykey" json:"task_id"`
	LabelID   uuid.UUID `gorm:"type:uuid;primarykey" json:"label_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Label Label `gorm:"foreignKey:LabelID" json:"label,omitempty"`
}

type TaskWatcher struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primarykey" json:"task_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
