package engine

import (
	"time"

	"github.com/maildue/maildue/internal/schedule"
)

// FiresOn reports whether a schedule's recurrence rule matches the given
// calendar date. Membership is tested against the real date, so a monthly
// rule configured for day 31 never fires in a shorter month and can never
// roll over into the next one.
func FiresOn(sched *schedule.EmailSchedule, date time.Time) bool {
	switch sched.FrequencyType {
	case schedule.FrequencyDaily:
		return true
	case schedule.FrequencyWeekly:
		return containsDay(sched.FrequencyDays, int(date.Weekday()))
	case schedule.FrequencyMonthly:
		return containsDay(sched.FrequencyDays, date.Day())
	default:
		return false
	}
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
