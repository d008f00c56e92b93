package ecampus

import (
	"bunker-backend/internal/components/telemetry"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testMapping() CourseMapping {
	m := NewCourseMapping()
	m.Set("19CS201", "Data Structures")
	m.Set("19CS202", "Operating Systems")
	m.Set("19CS203", "Computer Networks")
	return m
}

func TestClassifyPeriod(t *testing.T) {
	mapping := testMapping()

	table := []struct {
		text  string
		token string
		known bool
	}{
		{text: "19CS201 - Data Structures", token: "19CS201", known: true},
		{text: "Free Period", token: FreeToken, known: true},
		{text: "XYZ999LAB", token: "XYZ999LAB", known: false},
		{text: "", token: FreeToken, known: true},
		{text: "  ", token: FreeToken, known: true},
		{text: "fReE", token: FreeToken, known: true},
		{text: "19cs203", token: "19CS203", known: true},
		{text: "Lab: 19CS202/19CS201", token: "19CS201", known: true},
		{text: "LIB HOUR", token: "LIB", known: false},
		{text: "AB 12 CS9999", token: "CS9999", known: false},
		{text: "---", token: FreeToken, known: true},
	}

	for _, row := range table {
		token, known := ClassifyPeriod(row.text, mapping)
		require.Equal(t, row.token, token, "text %q", row.text)
		require.Equal(t, row.known, known, "text %q", row.text)
	}
}

func TestClassifyPeriodMappingOrder(t *testing.T) {
	mapping := NewCourseMapping()
	mapping.Set("19CS2", "Prefix")
	mapping.Set("19CS201", "Full")

	token, known := ClassifyPeriod("19CS201", mapping)
	require.True(t, known)
	require.Equal(t, "19CS2", token)

	token, _ = ClassifyPeriod("19CS201", testMapping())
	require.Equal(t, "19CS201", token)
}

func TestClassifyPeriodWithoutMapping(t *testing.T) {
	token, known := ClassifyPeriod("19CS201 - Data Structures", NewCourseMapping())
	require.False(t, known)
	require.Equal(t, "19CS201", token)
}

func TestCourseMapping(t *testing.T) {
	m := NewCourseMapping()
	m.Set("B", "second")
	m.Set("A", "first")
	m.Set("B", "renamed")

	require.Equal(t, []string{"B", "A"}, m.Codes())
	require.Equal(t, 2, m.Len())
	name, ok := m.Name("B")
	require.True(t, ok)
	require.Equal(t, "renamed", name)
	_, ok = m.Name("C")
	require.False(t, ok)

	var zero CourseMapping
	zero.Set("X", "y")
	require.Equal(t, []string{"X"}, zero.Codes())
}

func TestTimetable(t *testing.T) {
	portal := newFakePortal(t)
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())
	ctx := context.Background()

	first, status := client.Timetable(ctx)
	require.True(t, status.OK)
	require.Equal(t, []string{"19CS201", "19CS202", "19CS203"}, first.Codes())
	require.Equal(t, map[string]string{
		"19CS201": "Data Structures",
		"19CS202": "Operating Systems",
		"19CS203": "Computer Networks & Security",
	}, first.Map())

	second, status := client.Timetable(ctx)
	require.True(t, status.OK)
	if diff := cmp.Diff(first.Map(), second.Map()); diff != "" {
		t.Fatalf("timetable changed between calls (-first +second):\n%s", diff)
	}
	require.Equal(t, first.Codes(), second.Codes())
}

func TestTimetableMissing(t *testing.T) {
	portal := newFakePortal(t)
	portal.setPage("timetable", "<html><body></body></html>")
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	mapping, status := client.Timetable(context.Background())
	require.False(t, status.OK)
	require.Equal(t, "Timetable not available", status.Message)
	require.Equal(t, 0, mapping.Len())
}

func TestWeeklySchedule(t *testing.T) {
	portal := newFakePortal(t)
	tel := telemetry.NewMemoryAPI()
	client := newLoggedInClient(t, portal, tel)

	schedule, status := client.WeeklySchedule(context.Background())
	require.True(t, status.OK)
	require.Equal(t, "Success", status.Message)

	expected := WeeklySchedule{
		"Mon": {"19CS201", "19CS202", FreeToken, FreeToken},
		"Tue": {"19CS203", FreeToken, "19CS201", "19CS202"},
		"Wed": {"XYZ999LAB", "LIB", "19CS203", FreeToken},
		"Thu": {"19CS202", "19CS202", "19CS201", "19CS299"},
		"Fri": {"19CS201", "19CS203", "19CS202", "19CS201"},
	}
	if diff := cmp.Diff(expected, schedule); diff != "" {
		t.Fatalf("unexpected schedule (-expected +actual):\n%s", diff)
	}

	// unknown codes are kept as is but flagged for review
	warnings := tel.Reports(telemetry.KIND_WARNING, "client.weekly-schedule")
	require.Len(t, warnings, 3)
	require.Equal(t, "19CS201", warnings[2].Params[1], "closest known code to 19CS299")
}

func TestWeeklyScheduleStartRowFallback(t *testing.T) {
	portal := newFakePortal(t)
	// without a monday label the grid is assumed to start on the third row
	html := strings.NewReplacer(
		"<td>MON</td>", "<td>D1</td>",
		"<td>TUE</td>", "<td>D2</td>",
	).Replace(timetableHtml)
	portal.setPage("timetable", html)
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	schedule, status := client.WeeklySchedule(context.Background())
	require.True(t, status.OK)
	require.Equal(t, []string{"19CS201", "19CS202", FreeToken, FreeToken}, schedule["Mon"])
	require.Equal(t, []string{"19CS201", "19CS203", "19CS202", "19CS201"}, schedule["Fri"])
}

func TestWeeklyScheduleShortGridWithoutLabels(t *testing.T) {
	portal := newFakePortal(t)
	start := strings.Index(timetableHtml, `<table id="DtStfTimtab"`)
	end := strings.LastIndex(timetableHtml, "</table>") + len("</table>")
	grid := `<table id="DtStfTimtab">
		<tr><td>D1</td><td>19CS201</td><td>free</td></tr>
		<tr><td>D2</td><td>19CS201</td><td>19CS201</td></tr>
	</table>`
	portal.setPage("timetable", timetableHtml[:start]+grid+timetableHtml[end:])
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	schedule, status := client.WeeklySchedule(context.Background())
	require.True(t, status.OK)
	require.Equal(t, "Success", status.Message)
	require.Equal(t, []string{"19CS201", FreeToken}, schedule["Mon"])
	require.Equal(t, []string{"19CS201", "19CS201"}, schedule["Tue"])
	for _, day := range []string{"Wed", "Thu", "Fri"} {
		require.NotNil(t, schedule[day])
		require.Empty(t, schedule[day])
	}
}

func TestWeeklyScheduleMissingGrid(t *testing.T) {
	portal := newFakePortal(t)
	start := strings.Index(timetableHtml, `<table id="DtStfTimtab"`)
	end := strings.LastIndex(timetableHtml, "</table>") + len("</table>")
	portal.setPage("timetable", timetableHtml[:start]+timetableHtml[end:])
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	schedule, status := client.WeeklySchedule(context.Background())
	require.True(t, status.OK)
	require.Equal(t, "Weekly timetable not available", status.Message)
	require.Error(t, status.Err)
	require.Len(t, schedule, 5)
	for _, day := range Weekdays {
		require.NotNil(t, schedule[day])
		require.Empty(t, schedule[day])
	}
}

func TestProfile(t *testing.T) {
	portal := newFakePortal(t)
	client := newLoggedInClient(t, portal, telemetry.NewMemoryAPI())

	profile, status := client.Profile(context.Background())
	require.True(t, status.OK)
	require.Equal(t, "ARJUN K", profile.DisplayName)

	portal.setPage("timetable", "<html><body></body></html>")
	require.Equal(t, DefaultStudentName, client.StudentName(context.Background()))
}

func TestSession(t *testing.T) {
	portal := newFakePortal(t)
	ctx := context.Background()

	session, err := NewSession(ctx, portal.options(), Credentials{
		Username: testUsername,
		Password: testPassword,
	}, telemetry.NewMemoryAPI())
	require.NoError(t, err)
	require.True(t, session.Authenticated())
	require.NoError(t, session.AuthError())

	subjects, status := session.Attendance(ctx)
	require.True(t, status.OK)
	require.Len(t, subjects, 3)
	require.Equal(t, "ARJUN K", session.StudentName(ctx))

	rejected, err := NewSession(ctx, portal.options(), Credentials{
		Username: testUsername,
		Password: "nope",
	}, telemetry.NewMemoryAPI())
	require.NoError(t, err)
	require.False(t, rejected.Authenticated())
	require.ErrorIs(t, rejected.AuthError(), ErrAuthentication)
	_, status = rejected.WeeklySchedule(ctx)
	require.False(t, status.OK)
}
