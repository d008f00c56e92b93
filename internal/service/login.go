package service

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/scrapers/ecampus"
	"context"
	"fmt"
	"strings"
)

type FailureReason int

const (
	REASON_CREDENTIALS_REQUIRED FailureReason = iota + 1
	REASON_INVALID_CREDENTIALS
	REASON_ATTENDANCE_FETCH_FAILED
)

// Message is the user facing description of the reason.
func (r FailureReason) Message() string {
	switch r {
	case REASON_CREDENTIALS_REQUIRED:
		return "Credentials required"
	case REASON_INVALID_CREDENTIALS:
		return "Invalid credentials"
	case REASON_ATTENDANCE_FETCH_FAILED:
		return "Failed to fetch attendance"
	}
	return fmt.Sprintf("FailureReason(%d)", int(r))
}

// LoginError is returned by Login for every failure the student can do something
// about.
type LoginError struct {
	Reason FailureReason
	Cause  error
}

func (e *LoginError) Error() string {
	if e.Cause == nil {
		return e.Reason.Message()
	}
	return fmt.Sprintf("%s: %v", e.Reason.Message(), e.Cause)
}

func (e *LoginError) Unwrap() error {
	return e.Cause
}

// Subject is a subject's attendance joined with its course name and the advice at
// the service's threshold.
type Subject struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Total      int         `json:"total"`
	Attended   int         `json:"attended"`
	Percentage float64     `json:"percentage"`
	Advice     bunk.Advice `json:"bunk_info"`
}

type LoginResult struct {
	StudentName    string                 `json:"student_name"`
	Subjects       []Subject              `json:"subjects"`
	WeeklySchedule ecampus.WeeklySchedule `json:"timetable"`
}

// NormalizeCredentials removes the whitespace users tend to paste along with their
// roll number and password.
func NormalizeCredentials(username, password string) ecampus.Credentials {
	return ecampus.Credentials{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}
}

// BuildSubjects names every subject from the mapping (falling back to its code) and
// attaches advice at the given threshold.
func BuildSubjects(attendance []ecampus.SubjectAttendance, mapping ecampus.CourseMapping, threshold float64) []Subject {
	out := make([]Subject, 0, len(attendance))
	for _, a := range attendance {
		name, ok := mapping.Name(a.CourseCode)
		if !ok || name == "" {
			name = a.CourseCode
		}
		out = append(out, Subject{
			Code:       a.CourseCode,
			Name:       name,
			Total:      a.TotalHours,
			Attended:   a.AttendedHours,
			Percentage: a.Percentage,
			Advice:     bunk.Compute(a.Percentage, a.TotalHours, a.AttendedHours, threshold),
		})
	}
	return out
}

// Login logs into the portal and collects everything the dashboard shows. Failures
// the student caused or can retry are a *LoginError, anything else means the
// portal client could not be created at all.
func (s Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	creds := NormalizeCredentials(username, password)
	if creds.Empty() {
		return LoginResult{}, &LoginError{Reason: REASON_CREDENTIALS_REQUIRED}
	}

	session, err := s.portal.Login(ctx, creds)
	if err != nil {
		s.tel.ReportBroken(report_login, err)
		return LoginResult{}, err
	}
	if !session.Authenticated() {
		return LoginResult{}, &LoginError{
			Reason: REASON_INVALID_CREDENTIALS,
			Cause:  session.AuthError(),
		}
	}

	attendance, status := session.Attendance(ctx)
	if !status.OK || len(attendance) == 0 {
		cause := status.Err
		if cause == nil {
			cause = fmt.Errorf("no subjects: %s", status.Message)
		}
		s.tel.ReportWarning(report_login, cause, creds.Username)
		return LoginResult{}, &LoginError{
			Reason: REASON_ATTENDANCE_FETCH_FAILED,
			Cause:  cause,
		}
	}

	mapping, status := session.Timetable(ctx)
	if !status.OK {
		s.tel.ReportDebug(report_login, "course names unavailable", status.Message)
	}
	schedule, status := session.WeeklySchedule(ctx)
	if !status.OK {
		s.tel.ReportDebug(report_login, "weekly schedule unavailable", status.Message)
	}

	subjects := BuildSubjects(attendance, mapping, s.threshold)
	s.tel.ReportCount(report_login_subjects, int64(len(subjects)))

	return LoginResult{
		StudentName:    session.StudentName(ctx),
		Subjects:       subjects,
		WeeklySchedule: schedule,
	}, nil
}
