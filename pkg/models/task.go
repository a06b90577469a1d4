package models

import "time"

// Task is a scheduled follow-up action tied to a lead. The lead reference is
// required at creation time but may dangle afterwards if the lead is deleted
// from a stale view.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	LeadID      string    `json:"lead_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	Priority    string    `json:"priority,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskRequest represents the create/update payload for a task.
type TaskRequest struct {
	LeadID      string `json:"lead_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=2"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=alta media baixa"`
}
