package placeholder

import (
	"time"

	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/schedule"
)

// Message is the filled compose hand-off for one instance. The engine
// produces it and hands it to an external mail client; it never sends mail
// itself and never marks the instance sent.
type Message struct {
	To      []string `json:"to"`
	CC      []string `json:"cc"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// BuildMessage renders a schedule's templates for one of its instances.
// The instance's scheduled date drives the date tokens so a backfilled
// instance composes with its own date, not today's.
func BuildMessage(sched *schedule.EmailSchedule, inst *engine.ScheduleInstance, rctx Context) (Message, error) {
	asOf, err := time.ParseInLocation(engine.DateFormat, inst.ScheduledDate, time.Local)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      schedule.Recipients(sched.To),
		CC:      schedule.Recipients(sched.CC),
		Subject: Render(sched.Subject, asOf, sched.Language, rctx),
		Body:    Render(sched.Body, asOf, sched.Language, rctx),
	}, nil
}
