package ecampus

import (
	"bunker-backend/internal/components/telemetry"
	"context"
)

// Session is one authenticated visit to the portal. It is created by logging in
// and is not meant to be shared between goroutines or reused for another student.
//
// Every method does its own fetch, nothing is cached.
type Session struct {
	client *Client
}

// NewSession creates a client for creds and logs in with it. A failed login still
// yields a usable Session whose operations all report "Authentication failed", the
// returned error is only for a client that could not be built.
func NewSession(ctx context.Context, opts ClientOptions, creds Credentials, tel telemetry.API) (*Session, error) {
	client, err := NewClient(opts, tel)
	if err != nil {
		return nil, err
	}
	client.Authenticate(ctx, creds)
	return &Session{client: client}, nil
}

func (s *Session) Authenticated() bool {
	return s.client.Authenticated()
}

// AuthError is why the login failed, nil when it succeeded.
func (s *Session) AuthError() error {
	return s.client.LastError()
}

func (s *Session) Attendance(ctx context.Context) ([]SubjectAttendance, Status) {
	return s.client.Attendance(ctx)
}

func (s *Session) Timetable(ctx context.Context) (CourseMapping, Status) {
	return s.client.Timetable(ctx)
}

func (s *Session) WeeklySchedule(ctx context.Context) (WeeklySchedule, Status) {
	return s.client.WeeklySchedule(ctx)
}

func (s *Session) Profile(ctx context.Context) (StudentProfile, Status) {
	return s.client.Profile(ctx)
}

func (s *Session) StudentName(ctx context.Context) string {
	return s.client.StudentName(ctx)
}
