package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/autoplanning-api/internal/models"
	"github.com/noah-isme/autoplanning-api/pkg/config"
)

// LayoutGrid describes the hourly planning grid.
type LayoutGrid struct {
	StartHour    int
	EndHour      int
	CellHeight   float64
	MinRowHeight float64
	Spacing      float64
	// MaxStack caps the bands drawn for one slot; the last band becomes an overflow marker.
	MaxStack int
	Location *time.Location
}

// DefaultLayoutGrid matches the planning page: 08:00 to 20:00, 64px rows.
func DefaultLayoutGrid() LayoutGrid {
	return LayoutGrid{StartHour: 8, EndHour: 20, CellHeight: 64, MinRowHeight: 40, Spacing: 2, MaxStack: 3, Location: time.UTC}
}

// LayoutGridFromConfig builds the grid from planning configuration.
func LayoutGridFromConfig(cfg config.PlanningConfig, loc *time.Location) LayoutGrid {
	grid := DefaultLayoutGrid()
	if cfg.EndHour > cfg.StartHour {
		grid.StartHour, grid.EndHour = cfg.StartHour, cfg.EndHour
	}
	if cfg.CellHeight > 0 {
		grid.CellHeight = cfg.CellHeight
	}
	if cfg.MinRowHeight > 0 {
		grid.MinRowHeight = cfg.MinRowHeight
	}
	if cfg.RowSpacing >= 0 {
		grid.Spacing = cfg.RowSpacing
	}
	if cfg.MaxStack > 0 {
		grid.MaxStack = cfg.MaxStack
	}
	if loc != nil {
		grid.Location = loc
	}
	return grid
}

// LayoutColumn is one day or one instructor column of a view.
type LayoutColumn struct {
	Key     string
	Lessons []models.Lesson
}

type slotKey struct {
	hour   int
	bucket int
}

type slotGroup struct {
	key     slotKey
	minute  int
	lessons []models.Lesson
}

type columnSlots struct {
	key    string
	slots  []*slotGroup
	hidden []string
}

// ComputeLayout positions every lesson of every column on the grid. Lessons
// starting in the same hour and quarter-hour bucket are stacked without
// overlap, and each row is as tall as the tallest stack any column puts in it.
// The input is never modified.
func ComputeLayout(grid LayoutGrid, columns []LayoutColumn) models.Layout {
	grid = normalizeGrid(grid)
	hours := grid.EndHour - grid.StartHour

	grouped := make([]columnSlots, len(columns))
	for i, column := range columns {
		grouped[i] = groupSlots(grid, column)
	}

	// First pass: the height each column needs per hour, reduced to the max.
	rowHeights := make([]float64, hours)
	for h := range rowHeights {
		rowHeights[h] = grid.CellHeight
	}
	for _, column := range grouped {
		for _, slot := range column.slots {
			need := float64(slot.minute)/60*grid.CellHeight + stackExtent(grid, slot)
			idx := slot.key.hour - grid.StartHour
			if need > rowHeights[idx] {
				rowHeights[idx] = need
			}
		}
	}

	layout := models.Layout{Rows: make([]models.LayoutRow, hours), Columns: make([]models.LayoutColumnResult, 0, len(columns))}
	rowTops := make([]float64, hours)
	var top float64
	for h := 0; h < hours; h++ {
		rowTops[h] = top
		layout.Rows[h] = models.LayoutRow{Hour: grid.StartHour + h, Top: top, Height: rowHeights[h]}
		top += rowHeights[h]
	}
	layout.TotalHeight = top

	// Second pass: place blocks against the shared row tops.
	for _, column := range grouped {
		result := models.LayoutColumnResult{Key: column.key, Blocks: []models.LayoutBlock{}, Hidden: column.hidden}
		for _, slot := range column.slots {
			base := rowTops[slot.key.hour-grid.StartHour] + float64(slot.minute)/60*grid.CellHeight
			placeSlot(grid, slot, base, &result)
		}
		layout.Columns = append(layout.Columns, result)
	}
	return layout
}

func normalizeGrid(grid LayoutGrid) LayoutGrid {
	def := DefaultLayoutGrid()
	if grid.EndHour <= grid.StartHour {
		grid.StartHour, grid.EndHour = def.StartHour, def.EndHour
	}
	if grid.CellHeight <= 0 {
		grid.CellHeight = def.CellHeight
	}
	if grid.MinRowHeight <= 0 {
		grid.MinRowHeight = def.MinRowHeight
	}
	if grid.Spacing < 0 {
		grid.Spacing = 0
	}
	if grid.MaxStack <= 0 {
		grid.MaxStack = def.MaxStack
	}
	if grid.Location == nil {
		grid.Location = time.UTC
	}
	return grid
}

func groupSlots(grid LayoutGrid, column LayoutColumn) columnSlots {
	out := columnSlots{key: column.Key}
	index := make(map[slotKey]*slotGroup)
	for _, lesson := range column.Lessons {
		start := lesson.Start.In(grid.Location)
		if start.Hour() < grid.StartHour || start.Hour() >= grid.EndHour {
			out.hidden = append(out.hidden, lesson.ID)
			continue
		}
		key := slotKey{hour: start.Hour(), bucket: start.Minute() / 15 * 15}
		slot, ok := index[key]
		if !ok {
			slot = &slotGroup{key: key, minute: start.Minute()}
			index[key] = slot
			out.slots = append(out.slots, slot)
		}
		slot.lessons = append(slot.lessons, lesson)
	}
	return out
}

// visibleBands returns how many lessons are drawn and how many fold into the overflow marker.
func visibleBands(grid LayoutGrid, k int) (shown, overflow int) {
	if k <= grid.MaxStack {
		return k, 0
	}
	shown = grid.MaxStack - 1
	return shown, k - shown
}

func bandHeight(grid LayoutGrid, lesson models.Lesson, bands int) float64 {
	base := lesson.Duration().Hours() * grid.CellHeight
	if bands <= 1 {
		return base
	}
	h := base / float64(bands)
	if h < grid.MinRowHeight {
		return grid.MinRowHeight
	}
	return h
}

// stackExtent is the vertical space a multi-lesson slot occupies. Single
// lessons may span rows and do not stretch their row.
func stackExtent(grid LayoutGrid, slot *slotGroup) float64 {
	k := len(slot.lessons)
	if k <= 1 {
		return 0
	}
	shown, overflow := visibleBands(grid, k)
	bands := shown
	if overflow > 0 {
		bands++
	}
	var extent float64
	for i := 0; i < shown; i++ {
		extent += bandHeight(grid, slot.lessons[i], bands)
	}
	if overflow > 0 {
		extent += grid.MinRowHeight
	}
	return extent + float64(bands-1)*grid.Spacing
}

func placeSlot(grid LayoutGrid, slot *slotGroup, base float64, result *models.LayoutColumnResult) {
	k := len(slot.lessons)
	shown, overflow := visibleBands(grid, k)
	bands := shown
	if overflow > 0 {
		bands++
	}
	offset := base
	for i := 0; i < shown; i++ {
		lesson := slot.lessons[i]
		height := bandHeight(grid, lesson, bands)
		result.Blocks = append(result.Blocks, models.LayoutBlock{
			LessonID:   lesson.ID,
			Top:        offset,
			Height:     height,
			StackIndex: i,
			StackSize:  k,
		})
		offset += height + grid.Spacing
	}
	if overflow == 0 {
		return
	}
	ids := make([]string, 0, overflow)
	for _, lesson := range slot.lessons[shown:] {
		ids = append(ids, lesson.ID)
	}
	result.Overflows = append(result.Overflows, models.LayoutOverflow{
		Top:       offset,
		Height:    grid.MinRowHeight,
		Count:     overflow,
		Label:     fmt.Sprintf("+%d more", overflow),
		LessonIDs: ids,
	})
}
