package export

import (
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/scrapers/ecampus"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// PeriodTime is when a timetable period starts and ends, in "15:04" form.
type PeriodTime struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type CalendarOptions struct {
	// Periods gives the time of each period slot of a day, in order.
	Periods []PeriodTime
	// WeekOf is any day of the first week the events occur in.
	WeekOf time.Time
	// Weeks limits how many times the events repeat, 0 repeats forever.
	Weeks int
	// Location defaults to chrono.IST.
	Location *time.Location
}

type clock struct {
	hour, minute int
}

func parseClock(value string) (clock, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return clock{}, err
	}
	return clock{hour: t.Hour(), minute: t.Minute()}, nil
}

type slot struct {
	start, end clock
}

func parsePeriods(periods []PeriodTime) ([]slot, error) {
	out := make([]slot, len(periods))
	for i, p := range periods {
		start, err := parseClock(p.Start)
		if err != nil {
			return nil, fmt.Errorf("period %d start: %w", i+1, err)
		}
		end, err := parseClock(p.End)
		if err != nil {
			return nil, fmt.Errorf("period %d end: %w", i+1, err)
		}
		if end.hour*60+end.minute <= start.hour*60+start.minute {
			return nil, fmt.Errorf("period %d ends before it starts", i+1)
		}
		out[i] = slot{start: start, end: end}
	}
	return out, nil
}

func startOfWeek(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
}

func at(day time.Time, c clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, 0, 0, day.Location())
}

// WeeklyCalendar turns a weekly schedule into recurring calendar events. Consecutive
// periods of the same course become a single event and free periods are left out.
// names maps course codes to the titles used for the events.
func WeeklyCalendar(schedule ecampus.WeeklySchedule, names map[string]string, opts CalendarOptions) (*ics.Calendar, error) {
	loc := opts.Location
	if loc == nil {
		loc = chrono.IST
	}
	slots, err := parsePeriods(opts.Periods)
	if err != nil {
		return nil, err
	}

	rrule := "FREQ=WEEKLY"
	if opts.Weeks > 0 {
		rrule = fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", opts.Weeks)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//bunker//timetable//EN")

	monday := startOfWeek(opts.WeekOf, loc)
	for dayIndex, day := range ecampus.Weekdays {
		tokens := schedule[day]
		if len(tokens) > len(slots) {
			return nil, fmt.Errorf(
				"%s has %d periods but only %d period times are configured",
				day, len(tokens), len(slots),
			)
		}
		date := monday.AddDate(0, 0, dayIndex)

		for first := 0; first < len(tokens); {
			last := first
			for last+1 < len(tokens) && tokens[last+1] == tokens[first] {
				last++
			}
			code := tokens[first]
			if code != ecampus.FreeToken {
				title := names[code]
				if title == "" {
					title = code
				}

				event := cal.AddEvent(fmt.Sprintf("%s-p%d-%s@bunker", day, first+1, code))
				event.SetDtStampTime(monday)
				event.SetStartAt(at(date, slots[first].start))
				event.SetEndAt(at(date, slots[last].end))
				event.SetSummary(title)
				event.SetDescription(code)
				event.SetProperty(ics.ComponentPropertyRrule, rrule)
			}
			first = last + 1
		}
	}
	return cal, nil
}
