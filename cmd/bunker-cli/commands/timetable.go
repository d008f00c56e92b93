package commands

import (
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/export"
	"bunker-backend/internal/scrapers/ecampus"
	"bunker-backend/lib/util/serviceutil"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	icalPath  string
	icalWeeks int
)

func init() {
	addCredentialFlags(timetableCmd)
	timetableCmd.Flags().StringVar(&icalPath, "ical", "", "Also write the schedule as a weekly recurring iCalendar file.")
	timetableCmd.Flags().IntVar(&icalWeeks, "weeks", 0, "How many weeks the calendar events repeat, 0 repeats forever.")
	rootCmd.AddCommand(timetableCmd)
}

func renderSchedule(out io.Writer, schedule ecampus.WeeklySchedule) {
	periods := 0
	for _, day := range ecampus.Weekdays {
		periods = max(periods, len(schedule[day]))
	}

	header := table.Row{"Day"}
	for i := range periods {
		header = append(header, strconv.Itoa(i+1))
	}

	t := newTable(out)
	t.AppendHeader(header)
	for _, day := range ecampus.Weekdays {
		row := table.Row{day}
		for _, token := range schedule[day] {
			row = append(row, token)
		}
		t.AppendRow(row)
	}
	t.Render()
}

var timetableCmd = &cobra.Command{
	Use:   "timetable [--ical <path/to/output.ics>]",
	Short: "Logs in and prints the weekly class schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		result, err := login(cmd.Context(), cfg, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("login", err)
		}
		renderSchedule(os.Stdout, result.WeeklySchedule)

		if icalPath == "" {
			return
		}

		names := map[string]string{}
		for _, s := range result.Subjects {
			names[s.Code] = s.Name
		}
		cal, err := export.WeeklyCalendar(result.WeeklySchedule, names, export.CalendarOptions{
			Periods: cfg.Periods,
			WeekOf:  chrono.NewStandardTime().Now(),
			Weeks:   icalWeeks,
		})
		if err != nil {
			serviceutil.Fatal("build calendar", err)
		}
		err = os.WriteFile(icalPath, []byte(cal.Serialize()), 0644)
		if err != nil {
			serviceutil.Fatal("write calendar", err)
		}
		slog.Info("wrote calendar", "path", icalPath, "events", len(cal.Events()))
	},
}
