package models

import (
	"strings"
	"time"
)

// InstructorPalette lists the colours an instructor can be displayed with.
var InstructorPalette = []string{
	"#3b82f6", // blue
	"#ef4444", // red
	"#10b981", // emerald
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#06b6d4", // cyan
	"#84cc16", // lime
}

// UnknownColor is used for lessons whose instructor no longer exists.
const UnknownColor = "#cccccc"

// IsPaletteColor reports whether color belongs to InstructorPalette.
func IsPaletteColor(color string) bool {
	for _, c := range InstructorPalette {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

// Instructor is a driving instructor.
type Instructor struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (i Instructor) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// InstructorFilter narrows down instructor listings.
type InstructorFilter struct {
	Search   string
	Page     int
	PageSize int
}
