package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// vevent is a VEVENT as read from the feed, before recurrence expansion.
type vevent struct {
	UID      string
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	RRule    string
	ExDates  []time.Time
	Canceled bool
}

func parseFeed(r io.Reader, loc *time.Location) ([]vevent, error) {
	dec := ical.NewDecoder(r)

	var events []vevent
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ics: decoding calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, ok := parseEvent(comp, loc)
			if !ok {
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func parseEvent(comp *ical.Component, loc *time.Location) (vevent, bool) {
	var ev vevent

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		ev.Canceled = strings.EqualFold(prop.Value, "CANCELLED")
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return ev, false
	}
	t, err := start.DateTime(loc)
	if err != nil {
		return ev, false
	}
	ev.Start = t
	ev.AllDay = start.ValueType() == ical.ValueDate

	if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
		if t, err := end.DateTime(loc); err == nil {
			ev.End = t
		}
	}
	if ev.End.IsZero() {
		if ev.AllDay {
			ev.End = ev.Start.AddDate(0, 0, 1)
		} else {
			ev.End = ev.Start
		}
	}

	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
		ev.RRule = prop.Value
	}
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		for _, v := range strings.Split(prop.Value, ",") {
			p := ical.NewProp(ical.PropExceptionDates)
			p.Value = v
			p.Params = prop.Params
			if t, err := p.DateTime(loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if ev.UID == "" {
		ev.UID = ev.Start.Format(time.RFC3339) + "-" + ev.Title
	}
	return ev, true
}
