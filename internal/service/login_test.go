package service

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/scrapers/ecampus"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	authErr    error
	attendance []ecampus.SubjectAttendance
	attStatus  ecampus.Status
	mapping    ecampus.CourseMapping
	schedule   ecampus.WeeklySchedule
	name       string
	// timetable pages fail to parse
	degraded bool
}

func (f fakeSession) pageStatus() ecampus.Status {
	if f.degraded {
		return ecampus.Status{Message: "Timetable not available", Err: ecampus.ErrParse}
	}
	return ecampus.Status{OK: true, Message: "Success"}
}

func (f fakeSession) Authenticated() bool { return f.authErr == nil }
func (f fakeSession) AuthError() error    { return f.authErr }

func (f fakeSession) Attendance(context.Context) ([]ecampus.SubjectAttendance, ecampus.Status) {
	return f.attendance, f.attStatus
}

func (f fakeSession) Timetable(context.Context) (ecampus.CourseMapping, ecampus.Status) {
	return f.mapping, f.pageStatus()
}

func (f fakeSession) WeeklySchedule(context.Context) (ecampus.WeeklySchedule, ecampus.Status) {
	return f.schedule, f.pageStatus()
}

func (f fakeSession) StudentName(context.Context) string {
	return f.name
}

type fakePortal struct {
	session fakeSession
	err     error
	logins  []ecampus.Credentials
}

func (p *fakePortal) Login(_ context.Context, creds ecampus.Credentials) (PortalSession, error) {
	p.logins = append(p.logins, creds)
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func healthySession() fakeSession {
	mapping := ecampus.NewCourseMapping()
	mapping.Set("19CS201", "Data Structures")

	return fakeSession{
		attendance: []ecampus.SubjectAttendance{
			{CourseCode: "19CS201", DisplayName: "19CS201", TotalHours: 40, AttendedHours: 28, Percentage: 70},
			{CourseCode: "19CS202", DisplayName: "19CS202", TotalHours: 40, AttendedHours: 34, Percentage: 85},
		},
		attStatus: ecampus.Status{OK: true, Message: "Success"},
		mapping:   mapping,
		schedule: ecampus.WeeklySchedule{
			"Mon": {"19CS201", ecampus.FreeToken},
			"Tue": {}, "Wed": {}, "Thu": {}, "Fri": {},
		},
		name: "ARJUN K",
	}
}

func newTestService(t testing.TB, portal PortalAPI, options ...Option) Service {
	options = append([]Option{WithTelemetryAPI(telemetry.NewMemoryAPI())}, options...)
	s, err := NewService(portal, options...)
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	portal := &fakePortal{session: healthySession()}
	s := newTestService(t, portal)

	result, err := s.Login(context.Background(), "  22z201 ", "secret\n")
	require.NoError(t, err)
	require.Equal(t, []ecampus.Credentials{{Username: "22z201", Password: "secret"}}, portal.logins)

	require.Equal(t, "ARJUN K", result.StudentName)
	require.Equal(t, []Subject{
		{
			Code: "19CS201", Name: "Data Structures",
			Total: 40, Attended: 28, Percentage: 70,
			Advice: bunk.Advice{Action: bunk.ATTEND, Count: 8},
		},
		{
			Code: "19CS202", Name: "19CS202",
			Total: 40, Attended: 34, Percentage: 85,
			Advice: bunk.Advice{Action: bunk.CAN_BUNK, Count: 5},
		},
	}, result.Subjects)
	require.Equal(t, []string{"19CS201", ecampus.FreeToken}, result.WeeklySchedule["Mon"])
}

func TestLoginThreshold(t *testing.T) {
	s := newTestService(t, &fakePortal{session: healthySession()}, WithThreshold(80))
	require.Equal(t, 80.0, s.Threshold())

	result, err := s.Login(context.Background(), "22z201", "secret")
	require.NoError(t, err)
	// 85% of 40 hours at 80%: floor((34 - 32) / 0.8)
	require.Equal(t, bunk.Advice{Action: bunk.CAN_BUNK, Count: 2}, result.Subjects[1].Advice)
}

func TestLoginWithoutTimetable(t *testing.T) {
	session := healthySession()
	session.degraded = true
	tel := telemetry.NewMemoryAPI()
	s := newTestService(t, &fakePortal{session: session}, WithTelemetryAPI(tel))

	result, err := s.Login(context.Background(), "22z201", "secret")
	require.NoError(t, err)
	require.Len(t, result.Subjects, 2)

	debug := tel.Reports(telemetry.KIND_DEBUG, "")
	require.Len(t, debug, 2)
	for _, r := range debug {
		require.Equal(t, "service: "+report_login, r.Id)
		require.Equal(t, "Timetable not available", r.Params[1])
	}
	require.Equal(t, "course names unavailable", debug[0].Params[0])
	require.Equal(t, "weekly schedule unavailable", debug[1].Params[0])
}

func TestNewServiceRejectsThreshold(t *testing.T) {
	_, err := NewService(&fakePortal{}, WithThreshold(100))
	require.ErrorIs(t, err, bunk.ErrInvalidThreshold)
}

func requireReason(t testing.TB, err error, reason FailureReason) *LoginError {
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, reason, loginErr.Reason)
	return loginErr
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("credentials required", func(t *testing.T) {
		portal := &fakePortal{session: healthySession()}
		s := newTestService(t, portal)

		_, err := s.Login(ctx, "22z201", "   ")
		requireReason(t, err, REASON_CREDENTIALS_REQUIRED)
		require.Equal(t, "Credentials required", err.Error())
		require.Empty(t, portal.logins)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		session := healthySession()
		session.authErr = ecampus.ErrAuthentication
		s := newTestService(t, &fakePortal{session: session})

		_, err := s.Login(ctx, "22z201", "wrong")
		requireReason(t, err, REASON_INVALID_CREDENTIALS)
		require.ErrorIs(t, err, ecampus.ErrAuthentication)
	})

	t.Run("attendance unavailable", func(t *testing.T) {
		session := healthySession()
		session.attendance = nil
		session.attStatus = ecampus.Status{Message: "Attendance data not available", Err: ecampus.ErrMalformedPage}
		s := newTestService(t, &fakePortal{session: session})

		_, err := s.Login(ctx, "22z201", "secret")
		requireReason(t, err, REASON_ATTENDANCE_FETCH_FAILED)
		require.ErrorIs(t, err, ecampus.ErrMalformedPage)
	})

	t.Run("no subjects", func(t *testing.T) {
		session := healthySession()
		session.attendance = []ecampus.SubjectAttendance{}
		s := newTestService(t, &fakePortal{session: session})

		_, err := s.Login(ctx, "22z201", "secret")
		loginErr := requireReason(t, err, REASON_ATTENDANCE_FETCH_FAILED)
		require.Error(t, loginErr.Cause)
	})

	t.Run("client error", func(t *testing.T) {
		broken := errors.New("bad base url")
		s := newTestService(t, &fakePortal{err: broken})

		_, err := s.Login(ctx, "22z201", "secret")
		require.ErrorIs(t, err, broken)
		var loginErr *LoginError
		require.False(t, errors.As(err, &loginErr))
	})
}

func TestLoginAgainstPortal(t *testing.T) {
	portal := NewEcampusPortal(ecampus.ClientOptions{BaseUrl: "http://127.0.0.1:1/studzone2/"}, telemetry.NewMemoryAPI())
	s := newTestService(t, portal)

	_, err := s.Login(context.Background(), "22z201", "secret")
	loginErr := requireReason(t, err, REASON_INVALID_CREDENTIALS)
	require.ErrorIs(t, loginErr, ecampus.ErrNetwork)
}
