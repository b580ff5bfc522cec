package ical

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"hostkeep/pkg/model"
)

// ParseEvents decodes every VCALENDAR in the stream and flattens its
// components into calendar events. Malformed components are returned as-is
// with zero fields; the caller decides what is importable.
func ParseEvents(r io.Reader) ([]model.CalendarEvent, error) {
	decoder := ical.NewDecoder(r)

	var events []model.CalendarEvent
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			events = append(events, parseComponent(comp))
		}
	}

	return events, nil
}

func parseComponent(comp *ical.Component) model.CalendarEvent {
	event := model.CalendarEvent{Kind: comp.Name}

	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		event.UID = uidProp.Value
	}

	if summaryProp := comp.Props.Get(ical.PropSummary); summaryProp != nil {
		event.Summary = summaryProp.Value
	}

	if statusProp := comp.Props.Get(ical.PropStatus); statusProp != nil {
		event.Status = statusProp.Value
	}

	if startProp := comp.Props.Get(ical.PropDateTimeStart); startProp != nil {
		if t, err := parseDateTimeProperty(startProp); err == nil {
			event.Start = t
		}
	}

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, err := parseDateTimeProperty(endProp); err == nil {
			event.End = t
		}
	}

	return event
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.UTC); err == nil {
		return t, nil
	}

	// Feeds in the wild use a handful of non-standard layouts.
	value := prop.Value
	formats := []string{
		"20060102T150405",
		"20060102T150405Z",
		"20060102",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", value)
}
