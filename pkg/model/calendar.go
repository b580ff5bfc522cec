package model

import "time"

// CalendarEvent is one component parsed from an iCal feed. Any field may be
// zero; the reconciler decides what is importable.
type CalendarEvent struct {
	UID     string
	Kind    string
	Summary string
	Status  string
	Start   time.Time
	End     time.Time
}

// Importable reports whether the event carries everything a booking import
// needs: an event component, both timestamps and a stable identifier.
func (e CalendarEvent) Importable() bool {
	return e.Kind == "VEVENT" && e.UID != "" && !e.Start.IsZero() && !e.End.IsZero()
}
