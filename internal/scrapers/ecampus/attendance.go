package ecampus

import (
	"bunker-backend/pkg/htmlutil"
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const report_client_attendance = "client.attendance"

const (
	attendanceTableClass = "cssbody"
	attendanceMinCells   = 10

	colCourseCode = 0
	colTotalHours = 1
	colPresent    = 4
	colPercentage = 5
)

func parseAttendanceRow(cells []string) (SubjectAttendance, error) {
	total, err := strconv.Atoi(cells[colTotalHours])
	if err != nil {
		return SubjectAttendance{}, fmt.Errorf("%w: total hours %q", ErrParse, cells[colTotalHours])
	}
	present, err := strconv.Atoi(cells[colPresent])
	if err != nil {
		return SubjectAttendance{}, fmt.Errorf("%w: hours present %q", ErrParse, cells[colPresent])
	}
	percentage, err := strconv.ParseFloat(cells[colPercentage], 64)
	if err != nil || math.IsNaN(percentage) || percentage < 0 || percentage > 100 {
		return SubjectAttendance{}, fmt.Errorf("%w: percentage %q", ErrParse, cells[colPercentage])
	}
	if total < 0 || present < 0 || present > total {
		return SubjectAttendance{}, fmt.Errorf("%w: %d of %d hours present", ErrParse, present, total)
	}

	code := cells[colCourseCode]
	return SubjectAttendance{
		CourseCode:    code,
		DisplayName:   code,
		TotalHours:    total,
		AttendedHours: present,
		Percentage:    percentage,
	}, nil
}

// parseAttendance extracts every well formed subject row of the attendance page,
// malformed rows are reported and skipped.
func (c *Client) parseAttendance(doc *goquery.Document) ([]SubjectAttendance, error) {
	table, err := htmlutil.FindTable(doc, "class", attendanceTableClass)
	if err != nil {
		return nil, malformed(err)
	}

	var out []SubjectAttendance
	for cells := range table.Rows(1, attendanceMinCells) {
		subject, err := parseAttendanceRow(cells)
		if err != nil {
			c.tel.ReportWarning(report_client_attendance, fmt.Errorf("skip row: %w", err), cells)
			continue
		}
		out = append(out, subject)
	}
	c.tel.ReportCount(report_client_attendance, int64(len(out)))
	return out, nil
}

// Attendance fetches the attendance page. It never fails outright, the returned Status
// says whether the subjects can be trusted.
func (c *Client) Attendance(ctx context.Context) ([]SubjectAttendance, Status) {
	if !c.Authenticated() {
		return nil, statusFailed("Authentication failed", ErrAuthentication)
	}

	ctx, span := tracer.Start(ctx, "client:Attendance")
	defer span.End()

	fail := func(message string, err error) ([]SubjectAttendance, Status) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, statusFailed(message, err)
	}

	p, err := c.getPage(ctx, attendancePath)
	if err != nil {
		c.tel.ReportBroken(report_client_attendance, err)
		return fail(fmt.Sprintf("Error fetching attendance: %v", err), err)
	}

	subjects, err := c.parseAttendance(p.doc)
	if err != nil {
		c.tel.ReportWarning(report_client_attendance, err)
		return fail("Attendance data not available", err)
	}
	if subjects == nil {
		subjects = []SubjectAttendance{}
	}
	return subjects, statusOk("Success")
}
