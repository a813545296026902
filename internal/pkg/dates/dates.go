// Package dates computes trip-lifecycle timestamps: lottery close times,
// first-come-first-serve close times, and itinerary submission windows.
// All functions are pure; callers pass in "now" so the policy is easy to
// test and never reads the wall clock itself.
package dates

import "time"

const (
	lotteryHour   = 9  // Wednesday morning, when the lottery runs.
	itineraryHour = 18 // Thursday evening, when itineraries unlock.
	lecturesHour  = 21 // Thursday night, by which lectures have ended.
)

// weekday returns the day of week with Monday == 0 and Sunday == 6.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// LateAtNight gives 23:59:59 on the same date, since midnight is
// technically the next day.
func LateAtNight(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
}

// ItineraryAvailableAt returns when a trip's itinerary may be submitted:
// the Thursday evening before the trip. Itineraries submitted any earlier
// tend to go stale (weather, participants, and drivers all change).
func ItineraryAvailableAt(tripDate time.Time) time.Time {
	thursdayBefore := tripDate.AddDate(0, 0, -((weekday(tripDate) - 3 + 7) % 7))

	return time.Date(
		thursdayBefore.Year(), thursdayBefore.Month(), thursdayBefore.Day(),
		itineraryHour, 0, 0, 0, tripDate.Location(),
	)
}

// FCFSCloseTime returns when first-come-first-serve signups close: the
// Thursday night before the trip. A trip taking place on a Thursday
// closes Wednesday night instead, so signups never close after the
// participants have already come home.
func FCFSCloseTime(tripDate time.Time) time.Time {
	thursdayBefore := tripDate.AddDate(0, 0, -((weekday(tripDate) - 3 + 7) % 7))
	if thursdayBefore.Equal(tripDate) {
		thursdayBefore = thursdayBefore.AddDate(0, 0, -1)
	}

	return LateAtNight(thursdayBefore)
}

// lotteryTime is the close time for lottery trips on a given day.
// If the lottery time ever changes, modify just this function.
func lotteryTime(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), lotteryHour, 0, 0, 0, day.Location())
}

// NextWednesday returns the upcoming Wednesday (today, if now is a Wednesday).
func NextWednesday(now time.Time) time.Time {
	return now.AddDate(0, 0, (9-weekday(now))%7)
}

// WedMorning is the closest Wednesday at the lottery hour.
func WedMorning(now time.Time) time.Time {
	return lotteryTime(NextWednesday(now))
}

// NextLottery returns when the next lottery runs. If the most recent
// Wednesday-morning lottery has already passed, it is a week out.
func NextLottery(now time.Time) time.Time {
	morning := WedMorning(now)
	if now.After(morning) {
		return lotteryTime(morning.AddDate(0, 0, 7))
	}

	return morning
}

// ClosestWednesday returns whichever Wednesday (last or next) is nearer to now.
func ClosestWednesday(now time.Time) time.Time {
	next := NextWednesday(now)
	last := next.AddDate(0, 0, -7)
	if now.Sub(last) < next.Sub(now) {
		return last
	}

	return next
}

// ClosestWedAtNoon is useful in case the lottery is run slightly after
// its scheduled morning hour on Wednesday.
func ClosestWedAtNoon(now time.Time) time.Time {
	wed := ClosestWednesday(now)

	return time.Date(wed.Year(), wed.Month(), wed.Day(), 12, 0, 0, 0, now.Location())
}

// NearestSaturday gives the date of the nearest Saturday, or the next
// week's Saturday if now is already a Saturday. Most trips are posted
// during the week for the coming weekend.
func NearestSaturday(now time.Time) time.Time {
	if weekday(now) == 5 {
		return now.AddDate(0, 0, 7)
	}

	return now.AddDate(0, 0, (12-weekday(now))%7)
}

// DefaultSignupsCloseAt returns a sensible default close time for a new
// trip: the Wednesday-morning lottery if it has not passed yet, otherwise
// midnight before the nearest Saturday.
func DefaultSignupsCloseAt(now time.Time) time.Time {
	wedBefore := WedMorning(now)
	if !wedBefore.Before(now) {
		return wedBefore
	}

	tripDate := NearestSaturday(now)

	return LateAtNight(tripDate.AddDate(0, 0, -1))
}

// IsCurrentlyIAP reports whether it is roughly MIT's Independent
// Activities Period, when Winter School trips run. This is only
// approximate; IAP's exact dates cannot be derived from the calendar.
func IsCurrentlyIAP(now time.Time) bool {
	return now.Month() == time.January || (now.Month() == time.February && now.Day() < 7)
}

// WinterSchoolYear returns the year of the nearest Winter School.
func WinterSchoolYear(now time.Time) int {
	if now.Month() <= time.June {
		return now.Year()
	}

	return now.Year() + 1
}

// JanFirst returns midnight on January 1st of the current year.
func JanFirst(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
}

// LecturesComplete reports whether the mandatory first-week lectures have
// occurred. IAP varies every year, so this is deduced from the trips
// themselves: a completed Winter School trip this year means the first
// week is over, and a scheduled future trip past Thursday night means
// lectures have ended.
func LecturesComplete(now time.Time, hadPastTrip, hasFutureTrip bool) bool {
	if hadPastTrip {
		return true
	}

	dow := weekday(now)
	afterThursday := dow > 3 || (dow == 3 && now.Hour() >= lecturesHour)

	return hasFutureTrip && afterThursday
}
