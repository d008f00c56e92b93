package ecampus

import (
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/pkg/htmlutil"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttendance(t *testing.T) {
	portal := newFakePortal(t)
	tel := telemetry.NewMemoryAPI()
	client := newLoggedInClient(t, portal, tel)

	subjects, status := client.Attendance(context.Background())
	require.True(t, status.OK)
	require.Equal(t, "Success", status.Message)
	require.Equal(t, []SubjectAttendance{
		{CourseCode: "19CS201", DisplayName: "19CS201", TotalHours: 40, AttendedHours: 28, Percentage: 70},
		{CourseCode: "19CS202", DisplayName: "19CS202", TotalHours: 40, AttendedHours: 34, Percentage: 85},
		{CourseCode: "19CS203", DisplayName: "19CS203", TotalHours: 30, AttendedHours: 27, Percentage: 90},
	}, subjects)

	warnings := tel.Reports(telemetry.KIND_WARNING, "client.attendance")
	require.Len(t, warnings, 1)
	require.ErrorIs(t, warnings[0].Params[0].(error), ErrParse)

	counts := tel.Reports(telemetry.KIND_COUNT, "client.attendance")
	require.Len(t, counts, 1)
	require.EqualValues(t, 3, counts[0].Count)
}

func TestAttendanceTableMissing(t *testing.T) {
	portal := newFakePortal(t)
	portal.setPage("attendance", "<html><body><p>No records</p></body></html>")
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	subjects, status := client.Attendance(context.Background())
	require.Nil(t, subjects)
	require.False(t, status.OK)
	require.Equal(t, "Attendance data not available", status.Message)
	require.ErrorIs(t, status.Err, ErrMalformedPage)
	require.ErrorIs(t, status.Err, htmlutil.ErrNotFound)
}

func TestAttendanceEmptyTable(t *testing.T) {
	portal := newFakePortal(t)
	portal.setPage("attendance", `<table class="cssbody"><tr><td>COURSE CODE</td></tr></table>`)
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	subjects, status := client.Attendance(context.Background())
	require.True(t, status.OK)
	require.NotNil(t, subjects)
	require.Empty(t, subjects)
}

func TestParseAttendanceRow(t *testing.T) {
	row := func(total, present, percentage string) []string {
		return []string{"19CS201", total, "0", "0", present, percentage, "", "", "", ""}
	}

	subject, err := parseAttendanceRow(row("40", "28", "70.5"))
	require.NoError(t, err)
	require.Equal(t, 70.5, subject.Percentage)

	subject, err = parseAttendanceRow(row("40", "40", "100"))
	require.NoError(t, err)
	require.Equal(t, 100.0, subject.Percentage)

	for _, cells := range [][]string{
		row("forty", "28", "70"),
		row("40", "", "70"),
		row("40", "28", "70%"),
		row("40", "41", "100"),
		row("-1", "0", "0"),
		row("40", "28", "NaN"),
		row("40", "28", "Inf"),
		row("40", "28", "-Inf"),
		row("40", "28", "100.1"),
		row("40", "28", "-0.5"),
	} {
		_, err := parseAttendanceRow(cells)
		require.ErrorIs(t, err, ErrParse, "%v", cells)
	}
}

func TestUnauthenticatedOperations(t *testing.T) {
	client, err := NewClient(ClientOptions{}, telemetry.NewMemoryAPI())
	require.NoError(t, err)
	ctx := context.Background()

	subjects, status := client.Attendance(ctx)
	require.Nil(t, subjects)
	require.Equal(t, "Authentication failed", status.Message)
	require.ErrorIs(t, status.Err, ErrAuthentication)

	mapping, status := client.Timetable(ctx)
	require.Equal(t, 0, mapping.Len())
	require.False(t, status.OK)

	schedule, status := client.WeeklySchedule(ctx)
	require.False(t, status.OK)
	require.Len(t, schedule, len(Weekdays))
	for _, day := range Weekdays {
		require.Empty(t, schedule[day])
	}

	require.Equal(t, DefaultStudentName, client.StudentName(ctx))
}
