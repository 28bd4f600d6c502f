package models

// LayoutRow is one hourly row of the planning grid after row elasticity.
type LayoutRow struct {
	Hour   int     `json:"hour"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// LayoutBlock positions one lesson inside a column.
type LayoutBlock struct {
	LessonID   string  `json:"lesson_id"`
	Top        float64 `json:"top"`
	Height     float64 `json:"height"`
	StackIndex int     `json:"stack_index"`
	StackSize  int     `json:"stack_size"`
}

// LayoutOverflow replaces the last band of a stack that holds more lessons
// than can be shown.
type LayoutOverflow struct {
	Top       float64  `json:"top"`
	Height    float64  `json:"height"`
	Count     int      `json:"count"`
	Label     string   `json:"label"`
	LessonIDs []string `json:"lesson_ids"`
}

// LayoutColumnResult is the geometry of one day or instructor column.
type LayoutColumnResult struct {
	Key       string           `json:"key"`
	Blocks    []LayoutBlock    `json:"blocks"`
	Overflows []LayoutOverflow `json:"overflows,omitempty"`
	Hidden    []string         `json:"hidden,omitempty"`
}

// Layout is the full geometry of a planning view.
type Layout struct {
	Rows        []LayoutRow          `json:"rows"`
	Columns     []LayoutColumnResult `json:"columns"`
	TotalHeight float64              `json:"total_height"`
}
