// Package engine turns recurrence rules into concrete per-day email
// instances, tracks their lifecycle and recovers dates missed while the
// service was down.
package engine

import "time"

// InstanceStatus represents the lifecycle state of a schedule instance.
type InstanceStatus string

const (
	// StatusPending means the instance is waiting to be handled.
	StatusPending InstanceStatus = "pending"
	// StatusSent means an operator confirmed the email went out.
	StatusSent InstanceStatus = "sent"
	// StatusDismissed means an operator skipped the instance on purpose.
	StatusDismissed InstanceStatus = "dismissed"
	// StatusOverdue means the due moment passed without action.
	StatusOverdue InstanceStatus = "overdue"
)

// DateFormat is the canonical storage format for instance dates.
const DateFormat = "2006-01-02"

// ScheduleInstance is one concrete occurrence of a schedule on a date.
type ScheduleInstance struct {
	ID            string         `json:"id"`                     // Unique instance ID
	ScheduleID    string         `json:"schedule_id"`            // Owning schedule
	ScheduledDate string         `json:"scheduled_date"`         // Date in YYYY-MM-DD
	ScheduledTime string         `json:"scheduled_time"`         // Time in HH:MM, copied from the schedule at generation
	Status        InstanceStatus `json:"status"`                 // pending, sent, dismissed or overdue
	SentAt        *time.Time     `json:"sent_at,omitempty"`      // When marked sent
	DismissedAt   *time.Time     `json:"dismissed_at,omitempty"` // When dismissed
	DismissedBy   string         `json:"dismissed_by,omitempty"` // Who dismissed
	Notes         string         `json:"notes,omitempty"`        // Optional dismissal notes
	CreatedAt     time.Time      `json:"created_at"`             // When the row was generated
}

// Terminal reports whether the instance reached a final state.
func (i *ScheduleInstance) Terminal() bool {
	return i.Status == StatusSent || i.Status == StatusDismissed
}

// DueAt returns the instance's due moment in the given location.
func (i *ScheduleInstance) DueAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateFormat+" 15:04", i.ScheduledDate+" "+i.ScheduledTime, loc)
}

// Counts summarizes actionable instances for a single date.
type Counts struct {
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Total   int `json:"total"`
}

// BackfillResult reports what a startup catch-up sweep did.
type BackfillResult struct {
	DatesProcessed   int `json:"dates_processed"`
	InstancesCreated int `json:"instances_created"`
	Failures         int `json:"failures"`
}
