package models

import (
	"strings"
	"time"
)

// Availability is a weekly window in which a student can take lessons.
// Day follows time.Weekday: 0 is Sunday, 6 is Saturday.
type Availability struct {
	Day       int `json:"day" validate:"min=0,max=6"`
	StartHour int `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int `json:"end_hour" validate:"min=0,max=23,gtefield=StartHour"`
}

// Student is a learner driver.
type Student struct {
	ID           string         `json:"id"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Notes        string         `json:"notes,omitempty"`
	Availability []Availability `json:"availability,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}
