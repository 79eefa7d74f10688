// Package ics renders the event store as an iCalendar feed so the planner
// can be subscribed to from regular calendar clients.
package ics

import (
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "nascal/internal/log"
	"nascal/internal/store"
)

const (
	// ProductID identifies generated feeds.
	ProductID = "-//Nascente//Calendario 2016//PT"

	// timedEventDuration is assumed for events that carry a time; the
	// planner records no end times.
	timedEventDuration = time.Hour
)

// Build assembles a VCALENDAR from the given events. Events whose date does
// not parse are logged and skipped; the feed is best-effort, unlike the
// strict JSON import path.
func Build(events map[string]store.Event, calName string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(calName)

	// Serialize in a stable order.
	ids := make([]string, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	for _, id := range ids {
		ev := events[id]

		day, err := time.ParseInLocation("2006-01-02", dateOnly(ev.Date), time.Local)
		if err != nil {
			appLog.Error("skipping event with unparsable date", err, "id", ev.ID, "date", ev.Date)
			continue
		}

		ve := cal.AddEvent(ev.ID + "@nascente")
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		if ev.Desc != "" {
			ve.SetDescription(ev.Desc)
		}
		if ev.Type != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(ev.Type))
		}

		if start, ok := timedStart(day, ev.Time); ok {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(timedEventDuration))
		} else {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}

	return cal
}

// Feed is Build followed by serialization to the text/calendar wire form.
func Feed(events map[string]store.Event, calName string) string {
	return Build(events, calName).Serialize()
}

// timedStart combines the event day with an HH:MM time. A missing or
// malformed time yields ok=false and the event renders as all-day.
func timedStart(day time.Time, hhmm string) (time.Time, bool) {
	if hhmm == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("15:04", hhmm, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local), true
}

func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
