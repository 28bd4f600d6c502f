package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

// 2024-03-04 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func TestAvailabilityNoRulesAlwaysAvailable(t *testing.T) {
	checker := NewAvailabilityChecker(time.UTC)
	student := models.Student{FirstName: "Alice"}

	for day := 3; day <= 9; day++ {
		for hour := 0; hour < 23; hour++ {
			result := checker.Check(student, at(day, hour, 0), at(day, hour+1, 0))
			require.True(t, result.Available)
			require.Empty(t, result.Reason)
		}
	}
}

func TestAvailabilityWeeklyRule(t *testing.T) {
	checker := NewAvailabilityChecker(time.UTC)
	student := models.Student{FirstName: "Alice", Availability: []models.Availability{{Day: 1, StartHour: 9, EndHour: 12}}}

	result := checker.Check(student, at(4, 10, 0), at(4, 11, 0))
	assert.True(t, result.Available)

	result = checker.Check(student, at(4, 13, 0), at(4, 14, 0))
	assert.False(t, result.Available)
	assert.Equal(t, "Alice is only available from 9h to 12h that day", result.Reason)

	result = checker.Check(student, at(5, 10, 0), at(5, 11, 0))
	assert.False(t, result.Available)
	assert.Equal(t, "Alice is not available on Tuesday", result.Reason)
}

func TestAvailabilityBoundaries(t *testing.T) {
	checker := NewAvailabilityChecker(time.UTC)
	student := models.Student{FirstName: "Alice", Availability: []models.Availability{{Day: 1, StartHour: 9, EndHour: 12}}}

	assert.True(t, checker.Check(student, at(4, 9, 0), at(4, 12, 0)).Available)
	assert.False(t, checker.Check(student, at(4, 8, 30), at(4, 9, 30)).Available)
	assert.False(t, checker.Check(student, at(4, 11, 0), at(4, 13, 0)).Available)
}

func TestAvailabilityFirstMatchingRuleWins(t *testing.T) {
	checker := NewAvailabilityChecker(time.UTC)
	student := models.Student{FirstName: "Alice", Availability: []models.Availability{
		{Day: 1, StartHour: 9, EndHour: 10},
		{Day: 1, StartHour: 14, EndHour: 18},
	}}

	result := checker.Check(student, at(4, 15, 0), at(4, 16, 0))
	assert.False(t, result.Available)
	assert.Contains(t, result.Reason, "9h to 10h")
}

func TestAvailabilityUsesPlanningTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	checker := NewAvailabilityChecker(paris)
	student := models.Student{FirstName: "Alice", Availability: []models.Availability{{Day: 1, StartHour: 9, EndHour: 12}}}

	// 09:00 UTC is 10:00 in Paris in March; 11:00 UTC runs past noon there.
	assert.True(t, checker.Check(student, at(4, 9, 0), at(4, 10, 0)).Available)
	// 11:00 to 11:30 in Paris.
	assert.True(t, checker.Check(student, at(4, 10, 0), at(4, 10, 30)).Available)
	assert.False(t, checker.Check(student, at(4, 11, 0), at(4, 12, 0)).Available)
}
