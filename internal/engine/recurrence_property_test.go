package engine

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/maildue/maildue/internal/schedule"
)

func TestProperty_WeeklyFiresOnlyOnConfiguredWeekdays(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)

	properties.Property("weekly_membership_matches_weekday", prop.ForAll(
		func(weekday int, offset int) bool {
			sched := &schedule.EmailSchedule{
				FrequencyType: schedule.FrequencyWeekly,
				FrequencyDays: []int{weekday},
			}

			date := base.AddDate(0, 0, offset)
			fired := FiresOn(sched, date)
			return fired == (int(date.Weekday()) == weekday)
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 365),
	))

	properties.TestingRun(t)
}

func TestProperty_MonthlyNeverFiresOnWrongDay(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)

	properties.Property("monthly_membership_matches_day_of_month", prop.ForAll(
		func(day int, offset int) bool {
			sched := &schedule.EmailSchedule{
				FrequencyType: schedule.FrequencyMonthly,
				FrequencyDays: []int{day},
			}

			date := base.AddDate(0, 0, offset)
			fired := FiresOn(sched, date)

			// Fires exactly when the real calendar day matches; a day the
			// month does not contain can never fire, so no rollover.
			return fired == (date.Day() == day)
		},
		gen.IntRange(1, 31),
		gen.IntRange(0, 730),
	))

	properties.TestingRun(t)
}
