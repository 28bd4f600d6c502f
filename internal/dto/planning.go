package dto

import (
	"time"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// PlanningViewMode selects how columns are built.
type PlanningViewMode string

const (
	PlanningWeek PlanningViewMode = "week"
	PlanningTeam PlanningViewMode = "team"
)

// PlanningLesson is a lesson decorated with its display labels.
type PlanningLesson struct {
	models.Lesson
	StudentName         string `json:"student_name"`
	InstructorFirstName string `json:"instructor_first_name"`
	Color               string `json:"color"`
	StartLabel          string `json:"start_label"`
}

// PlanningColumn is one day (week view) or one instructor (team view).
type PlanningColumn struct {
	Key          string                  `json:"key"`
	Label        string                  `json:"label"`
	Date         string                  `json:"date"`
	InstructorID string                  `json:"instructor_id,omitempty"`
	Color        string                  `json:"color,omitempty"`
	Lessons      []PlanningLesson        `json:"lessons"`
	Blocks       []models.LayoutBlock    `json:"blocks"`
	Overflows    []models.LayoutOverflow `json:"overflows,omitempty"`
	Hidden       []string                `json:"hidden,omitempty"`
}

// PlanningView is the payload of the week and team endpoints.
type PlanningView struct {
	Mode        PlanningViewMode   `json:"mode"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Previous    string             `json:"previous"`
	Next        string             `json:"next"`
	StartHour   int                `json:"start_hour"`
	EndHour     int                `json:"end_hour"`
	Rows        []models.LayoutRow `json:"rows"`
	Columns     []PlanningColumn   `json:"columns"`
	TotalHeight float64            `json:"total_height"`
}
