package models

import "time"

type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	DueDate     *time.Time
	Completed   bool
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
