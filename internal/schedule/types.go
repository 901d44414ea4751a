// Package schedule provides the durable store for recurring email schedule
// definitions.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// FrequencyType represents how often a schedule fires.
type FrequencyType string

const (
	// FrequencyDaily fires every calendar day.
	FrequencyDaily FrequencyType = "daily"
	// FrequencyWeekly fires on configured weekdays (0 = Sunday .. 6 = Saturday).
	FrequencyWeekly FrequencyType = "weekly"
	// FrequencyMonthly fires on configured days of the month (1..31).
	FrequencyMonthly FrequencyType = "monthly"
)

// EmailSchedule represents a recurring email rule.
type EmailSchedule struct {
	ID            string        `json:"id"`             // Unique schedule ID
	Name          string        `json:"name"`           // Display name
	Description   string        `json:"description"`    // Optional description
	To            string        `json:"to"`             // Comma-delimited recipient addresses
	CC            string        `json:"cc"`             // Comma-delimited CC addresses (optional)
	Subject       string        `json:"subject"`        // Subject template (placeholder tokens allowed)
	Body          string        `json:"body"`           // HTML body template (sanitized on save)
	FrequencyType FrequencyType `json:"frequency_type"` // daily, weekly or monthly
	FrequencyDays []int         `json:"frequency_days"` // Weekday or day-of-month set; empty for daily
	SendTime      string        `json:"send_time"`      // "HH:MM", 24-hour, local time
	Language      string        `json:"language"`       // Language tag driving placeholder variants
	Active        bool          `json:"active"`         // Inactive schedules generate no instances
	CreatedAt     time.Time     `json:"created_at"`     // When the schedule was created
	CreatedBy     string        `json:"created_by"`     // Operator who created it
}

// Recipients splits a delimited address list into trimmed addresses.
func Recipients(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := strings.TrimSpace(p); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// ParseSendTime parses an "HH:MM" send time into hour and minute.
func ParseSendTime(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing send time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// DueAt combines a calendar date with the schedule's send time in the
// date's location.
func DueAt(date time.Time, sendTime string) (time.Time, error) {
	hour, minute, err := ParseSendTime(sendTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
