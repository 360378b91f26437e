package bundle

import "time"

// Phase is one of the three lifecycle phases an event can be in.
type Phase string

const (
	PreEvent  Phase = "pre-event"
	EventDay  Phase = "event-day"
	PostEvent Phase = "post-event"
)

var labels = map[Phase]string{
	PreEvent:  "Upcoming",
	EventDay:  "Happening Today",
	PostEvent: "Past Event",
}

// LifecyclePhase is the derived {phase, label, isLive} triple.
type LifecyclePhase struct {
	Phase  Phase  `json:"phase"`
	Label  string `json:"label"`
	IsLive bool   `json:"isLive"`
}

// ComputeLifecyclePhase compares startDateISO's date portion against
// today's date in UTC. Missing or unparseable dates fall to pre-event
// with isLive=false, per §4.4.
func ComputeLifecyclePhase(startDateISO string) LifecyclePhase {
	return computeLifecyclePhaseAt(startDateISO, time.Now().UTC())
}

func computeLifecyclePhaseAt(startDateISO string, now time.Time) LifecyclePhase {
	d, err := time.Parse("2006-01-02", startDateISO)
	if err != nil {
		return LifecyclePhase{Phase: PreEvent, Label: labels[PreEvent], IsLive: false}
	}

	today := now.Truncate(24 * time.Hour)
	eventDay := d.Truncate(24 * time.Hour)

	var phase Phase
	switch {
	case today.Before(eventDay):
		phase = PreEvent
	case today.Equal(eventDay):
		phase = EventDay
	default:
		phase = PostEvent
	}

	return LifecyclePhase{Phase: phase, Label: labels[phase], IsLive: phase == EventDay}
}
