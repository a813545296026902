package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// January 2024 starts on a Monday, which makes the fixtures easy to read:
// Mon Jan 1, Tue Jan 2, Wed Jan 3, Thu Jan 4, Fri Jan 5, Sat Jan 6.
func date(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

func TestFCFSCloseTime(t *testing.T) {
	tests := []struct {
		name     string
		tripDate time.Time
		want     time.Time
	}{
		{
			name:     "Saturday trip closes the Thursday before",
			tripDate: date(6, 0),
			want:     time.Date(2024, time.January, 4, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Sunday trip closes the Thursday before",
			tripDate: date(7, 0),
			want:     time.Date(2024, time.January, 4, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Thursday trip closes Wednesday night, not the same day",
			tripDate: date(4, 0),
			want:     time.Date(2024, time.January, 3, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Wednesday trip closes the previous week's Thursday",
			tripDate: date(3, 0),
			want:     time.Date(2023, time.December, 28, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FCFSCloseTime(tt.tripDate))
		})
	}
}

func TestItineraryAvailableAt(t *testing.T) {
	got := ItineraryAvailableAt(date(6, 0))

	assert.Equal(t, time.Date(2024, time.January, 4, 18, 0, 0, 0, time.UTC), got)
}

func TestNextLottery(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before Wednesday morning",
			now:  date(2, 10),
			want: date(3, 9),
		},
		{
			name: "Wednesday just before the lottery",
			now:  date(3, 8),
			want: date(3, 9),
		},
		{
			name: "Wednesday after the lottery rolls a week out",
			now:  date(3, 10),
			want: date(10, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextLottery(tt.now))
		})
	}
}

func TestClosestWednesday(t *testing.T) {
	// Thursday is nearer to the Wednesday just past.
	assert.Equal(t, date(3, 0), ClosestWednesday(date(4, 0)))

	// Monday is nearer to the Wednesday ahead.
	assert.Equal(t, date(10, 0), ClosestWednesday(date(8, 0)))
}

func TestNearestSaturday(t *testing.T) {
	// Midweek resolves to the coming Saturday.
	assert.Equal(t, date(6, 0), NearestSaturday(date(1, 0)))

	// On a Saturday, skip to next week's.
	assert.Equal(t, date(13, 0), NearestSaturday(date(6, 0)))
}

func TestDefaultSignupsCloseAt(t *testing.T) {
	// Lottery still ahead: close at the lottery.
	assert.Equal(t, date(3, 9), DefaultSignupsCloseAt(date(2, 8)))

	// Lottery passed: close midnight before the nearest Saturday.
	assert.Equal(t,
		time.Date(2024, time.January, 5, 23, 59, 59, 0, time.UTC),
		DefaultSignupsCloseAt(date(3, 10)))
}

func TestIsCurrentlyIAP(t *testing.T) {
	assert.True(t, IsCurrentlyIAP(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsCurrentlyIAP(time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsCurrentlyIAP(time.Date(2024, time.February, 7, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsCurrentlyIAP(time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC)))
}

func TestWinterSchoolYear(t *testing.T) {
	assert.Equal(t, 2024, WinterSchoolYear(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, WinterSchoolYear(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLecturesComplete(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		hadPastTrip   bool
		hasFutureTrip bool
		want          bool
	}{
		{
			name:        "a completed trip settles it",
			now:         date(2, 10),
			hadPastTrip: true,
			want:        true,
		},
		{
			name:          "Thursday night with an upcoming trip",
			now:           date(4, 22),
			hasFutureTrip: true,
			want:          true,
		},
		{
			name:          "Thursday evening before lectures end",
			now:           date(4, 20),
			hasFutureTrip: true,
			want:          false,
		},
		{
			name:          "Friday with an upcoming trip",
			now:           date(5, 10),
			hasFutureTrip: true,
			want:          true,
		},
		{
			name: "no trips at all",
			now:  date(5, 10),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LecturesComplete(tt.now, tt.hadPastTrip, tt.hasFutureTrip))
		})
	}
}
