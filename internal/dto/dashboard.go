package dto

import "time"

// DashboardLesson is an upcoming lesson with display names.
type DashboardLesson struct {
	ID             string    `json:"id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	StudentName    string    `json:"student_name"`
	InstructorName string    `json:"instructor_name"`
	Color          string    `json:"color"`
	Confirmed      bool      `json:"confirmed"`
}

// DashboardSummary is the payload of GET /dashboard.
type DashboardSummary struct {
	Students        int               `json:"students"`
	Instructors     int               `json:"instructors"`
	LessonsThisWeek int               `json:"lessons_this_week"`
	NextLessons     []DashboardLesson `json:"next_lessons"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
