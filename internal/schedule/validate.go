package schedule

import (
	"fmt"
	"sort"

	"github.com/microcosm-cc/bluemonday"
)

// ValidationError describes a malformed schedule field. Schedules that fail
// validation are never persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// bodyPolicy sanitizes operator-supplied HTML bodies. UGC policy keeps the
// formatting tags a rich-text editor produces and strips scripts.
var bodyPolicy = bluemonday.UGCPolicy()

// Validate checks a schedule's fields and normalizes them in place:
// frequency days are sorted and de-duplicated, daily schedules drop their
// day set, and the HTML body is sanitized.
func Validate(s *EmailSchedule) error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}

	if len(Recipients(s.To)) == 0 {
		return &ValidationError{Field: "to", Message: "at least one recipient is required"}
	}

	if _, _, err := ParseSendTime(s.SendTime); err != nil {
		return &ValidationError{Field: "send_time", Message: "must be HH:MM in 24-hour format"}
	}

	if s.Language != "en" && s.Language != "ar" {
		return &ValidationError{Field: "language", Message: "must be 'en' or 'ar'"}
	}

	switch s.FrequencyType {
	case FrequencyDaily:
		// Day sets are meaningless for daily rules
		s.FrequencyDays = nil

	case FrequencyWeekly:
		if len(s.FrequencyDays) == 0 {
			return &ValidationError{Field: "frequency_days", Message: "required for weekly schedules"}
		}
		for _, d := range s.FrequencyDays {
			if d < 0 || d > 6 {
				return &ValidationError{Field: "frequency_days", Message: "weekday values must be between 0 (Sunday) and 6 (Saturday)"}
			}
		}
		s.FrequencyDays = normalizeDays(s.FrequencyDays)

	case FrequencyMonthly:
		if len(s.FrequencyDays) == 0 {
			return &ValidationError{Field: "frequency_days", Message: "required for monthly schedules"}
		}
		for _, d := range s.FrequencyDays {
			if d < 1 || d > 31 {
				return &ValidationError{Field: "frequency_days", Message: "day-of-month values must be between 1 and 31"}
			}
		}
		s.FrequencyDays = normalizeDays(s.FrequencyDays)

	default:
		return &ValidationError{Field: "frequency_type", Message: "must be daily, weekly or monthly"}
	}

	s.Body = bodyPolicy.Sanitize(s.Body)

	return nil
}

func normalizeDays(days []int) []int {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}
