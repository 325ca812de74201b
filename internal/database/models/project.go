package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description,omitempty"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectMember struct {
	Base
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user" json:"user_id"`
	Role      string    `gorm:"not null;default:'member'" json:"role"` // admin, member

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

// Task statuses and priorities
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
	TaskStatusBlocked    = "blocked"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	Base
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `gorm:"not null;default:'todo'" json:"status"`
	Priority    string     `gorm:"not null;default:'medium'" json:"priority"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Tags     []TaskTag `gorm:"foreignKey:TaskID" json:"tags,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

type TaskTag struct {
	Base
	TaskID uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Name   string    `gorm:"not null" json:"name"`
}

func (TaskTag) TableName() string {
	return "task_tags"
}
