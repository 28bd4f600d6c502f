package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

func lessonAt(id string, start time.Time, d time.Duration) models.Lesson {
	return models.Lesson{ID: id, Start: start, End: start.Add(d)}
}

func TestComputeLayoutSingleLesson(t *testing.T) {
	grid := DefaultLayoutGrid()
	layout := ComputeLayout(grid, []LayoutColumn{{Key: "mon", Lessons: []models.Lesson{
		lessonAt("a", at(4, 10, 30), 90*time.Minute),
	}}})

	require.Len(t, layout.Rows, 12)
	assert.Equal(t, 12*64.0, layout.TotalHeight)
	require.Len(t, layout.Columns[0].Blocks, 1)
	block := layout.Columns[0].Blocks[0]
	assert.InDelta(t, 2*64+32, block.Top, 0.001)
	assert.InDelta(t, 96, block.Height, 0.001)
	assert.Equal(t, 1, block.StackSize)
}

func TestComputeLayoutStacksSameSlotWithoutOverlap(t *testing.T) {
	grid := DefaultLayoutGrid()
	lessons := []models.Lesson{
		lessonAt("first", at(4, 10, 0), time.Hour),
		lessonAt("second", at(4, 10, 5), time.Hour),
		lessonAt("third", at(4, 10, 14), time.Hour),
	}
	layout := ComputeLayout(grid, []LayoutColumn{{Key: "mon", Lessons: lessons}})

	blocks := layout.Columns[0].Blocks
	require.Len(t, blocks, 3)
	assert.Empty(t, layout.Columns[0].Overflows)
	for i, block := range blocks {
		assert.Equal(t, lessons[i].ID, block.LessonID)
		assert.Equal(t, i, block.StackIndex)
		assert.GreaterOrEqual(t, block.Height, 40.0)
		if i > 0 {
			prev := blocks[i-1]
			assert.GreaterOrEqual(t, block.Top, prev.Top+prev.Height, "bands must not overlap")
		}
	}
	assert.InDelta(t, 2*64, blocks[0].Top, 0.001)
	assert.InDelta(t, 2*64+42, blocks[1].Top, 0.001)
}

func TestComputeLayoutDifferentBucketsDoNotStack(t *testing.T) {
	layout := ComputeLayout(DefaultLayoutGrid(), []LayoutColumn{{Key: "mon", Lessons: []models.Lesson{
		lessonAt("a", at(4, 10, 0), time.Hour),
		lessonAt("b", at(4, 10, 15), time.Hour),
	}}})
	for _, block := range layout.Columns[0].Blocks {
		assert.Equal(t, 1, block.StackSize)
		assert.Equal(t, 0, block.StackIndex)
	}
	assert.Equal(t, 64.0, layout.Rows[2].Height)
}

func TestComputeLayoutOverflowMarker(t *testing.T) {
	grid := DefaultLayoutGrid()
	var lessons []models.Lesson
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		lessons = append(lessons, lessonAt(id, at(4, 9, 0), time.Hour))
	}
	layout := ComputeLayout(grid, []LayoutColumn{{Key: "mon", Lessons: lessons}})

	column := layout.Columns[0]
	require.Len(t, column.Blocks, 2)
	require.Len(t, column.Overflows, 1)
	overflow := column.Overflows[0]
	assert.Equal(t, 3, overflow.Count)
	assert.Equal(t, "+3 more", overflow.Label)
	assert.Equal(t, []string{"c", "d", "e"}, overflow.LessonIDs)
	last := column.Blocks[1]
	assert.GreaterOrEqual(t, overflow.Top, last.Top+last.Height)
	assert.LessOrEqual(t, overflow.Top+overflow.Height, layout.Rows[1].Top+layout.Rows[1].Height+0.001)
}

func TestComputeLayoutRowElasticityIsShared(t *testing.T) {
	grid := DefaultLayoutGrid()
	crowded := LayoutColumn{Key: "mon", Lessons: []models.Lesson{
		lessonAt("a", at(4, 10, 0), time.Hour),
		lessonAt("b", at(4, 10, 0), time.Hour),
		lessonAt("c", at(4, 10, 0), time.Hour),
	}}
	quiet := LayoutColumn{Key: "tue", Lessons: []models.Lesson{
		lessonAt("d", at(5, 11, 0), time.Hour),
	}}
	layout := ComputeLayout(grid, []LayoutColumn{crowded, quiet})

	tenOClock := layout.Rows[2]
	assert.InDelta(t, 3*40+2*2, tenOClock.Height, 0.001)
	elevenOClock := layout.Rows[3]
	assert.InDelta(t, tenOClock.Top+tenOClock.Height, elevenOClock.Top, 0.001)
	// The quiet column follows the stretched row.
	assert.InDelta(t, elevenOClock.Top, layout.Columns[1].Blocks[0].Top, 0.001)
	assert.InDelta(t, 11*64+124, layout.TotalHeight, 0.001)
}

func TestComputeLayoutHidesLessonsOutsideGrid(t *testing.T) {
	layout := ComputeLayout(DefaultLayoutGrid(), []LayoutColumn{{Key: "mon", Lessons: []models.Lesson{
		lessonAt("early", at(4, 7, 0), time.Hour),
		lessonAt("late", at(4, 20, 0), time.Hour),
		lessonAt("ok", at(4, 19, 0), time.Hour),
	}}})
	assert.Equal(t, []string{"early", "late"}, layout.Columns[0].Hidden)
	require.Len(t, layout.Columns[0].Blocks, 1)
	assert.Equal(t, "ok", layout.Columns[0].Blocks[0].LessonID)
}

func TestComputeLayoutDoesNotMutateInput(t *testing.T) {
	lessons := []models.Lesson{
		lessonAt("b", at(4, 10, 0), time.Hour),
		lessonAt("a", at(4, 10, 0), time.Hour),
	}
	snapshot := append([]models.Lesson(nil), lessons...)
	first := ComputeLayout(DefaultLayoutGrid(), []LayoutColumn{{Key: "mon", Lessons: lessons}})
	second := ComputeLayout(DefaultLayoutGrid(), []LayoutColumn{{Key: "mon", Lessons: lessons}})
	assert.Equal(t, snapshot, lessons)
	assert.Equal(t, first, second)
}
