package dto

import "strings"

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Project name is required"
	}
	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	AssigneeID  string   `json:"assignee_id,omitempty"`
	DueDate     string   `json:"due_date,omitempty"` // RFC 3339
	Tags        []string `json:"tags,omitempty"`
}

func (r CreateTaskRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Task title is required"
	}
	return errors
}

type UpdateTaskRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

type SendMessageRequest struct {
	Content  string   `json:"content"`
	Mentions []string `json:"mentions,omitempty"`
}

func (r SendMessageRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Content) == "" {
		errors["content"] = "Message content is required"
	}
	return errors
}

type FileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}
