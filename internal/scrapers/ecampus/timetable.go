package ecampus

import (
	"bunker-backend/pkg/htmlutil"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_timetable       = "client.timetable"
	report_client_weekly_schedule = "client.weekly-schedule"
)

const (
	courseTableId = "TbCourDesc"
	weeklyTableId = "DtStfTimtab"

	// used when no row of the weekly grid mentions monday and the grid is longer
	// than this, shorter grids start at the first row
	defaultWeeklyStartRow = 2
)

func (c *Client) parseCourseMapping(doc *goquery.Document) (CourseMapping, error) {
	table, err := htmlutil.FindTable(doc, "id", courseTableId)
	if err != nil {
		return NewCourseMapping(), malformed(err)
	}

	mapping := NewCourseMapping()
	for cells := range table.Rows(1, 2) {
		if cells[0] == "" {
			c.tel.ReportWarning(report_client_timetable, "course row without a code", cells)
			continue
		}
		mapping.Set(cells[0], cells[1])
	}
	return mapping, nil
}

var codeRunRegex = regexp.MustCompile(`[A-Z0-9]+`)

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

// ClassifyPeriod turns the text of a weekly grid cell into a schedule token. The
// token is FreeToken, a code from the mapping (known is true), or a code-shaped run
// of the text that the mapping does not know about.
//
// Matching order:
//  1. empty text or "free" is FreeToken
//  2. the first code in mapping order that appears in the text, or that the text
//     starts with, case-insensitively
//  3. the first [A-Z0-9] run of the uppercased text that is at least 5 characters
//     and has a digit, otherwise the first run, otherwise FreeToken
func ClassifyPeriod(text string, mapping CourseMapping) (token string, known bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "free") {
		return FreeToken, true
	}

	lower := strings.ToLower(text)
	for _, code := range mapping.codes {
		lowerCode := strings.ToLower(code)
		if strings.Contains(lower, lowerCode) || strings.HasPrefix(lower, lowerCode) {
			return code, true
		}
	}

	runs := codeRunRegex.FindAllString(strings.ToUpper(text), -1)
	if len(runs) == 0 {
		return FreeToken, true
	}
	token = runs[0]
	for _, run := range runs {
		if len(run) >= 5 && hasDigit(run) {
			token = run
			break
		}
	}
	// "Free Period", "FREE HOUR" and the like
	if token == "FREE" {
		return FreeToken, true
	}
	return token, false
}

// closestCode is the known code most similar to token, used as a hint when a period
// could not be matched against the mapping.
func closestCode(token string, mapping CourseMapping) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, code := range mapping.codes {
		score := matchr.JaroWinkler(token, code, false)
		if score > bestScore {
			best = code
			bestScore = score
		}
	}
	return best, bestScore
}

func weeklyStartRow(table htmlutil.Table) int {
	for i := 0; i < table.Len(); i++ {
		if strings.Contains(strings.ToLower(table.RowText(i)), "mon") {
			return i
		}
	}
	if table.Len() <= defaultWeeklyStartRow {
		return 0
	}
	return defaultWeeklyStartRow
}

func (c *Client) parseWeeklySchedule(doc *goquery.Document, mapping CourseMapping) (WeeklySchedule, error) {
	table, err := htmlutil.FindTable(doc, "id", weeklyTableId)
	if err != nil {
		return emptySchedule(), malformed(err)
	}

	start := weeklyStartRow(table)
	rows := slices.Collect(table.RowsWith(htmlutil.RowOptions{
		Skip:     start,
		CellText: htmlutil.CompactText,
	}))

	schedule := emptySchedule()
	for offset, day := range Weekdays {
		if offset >= len(rows) || len(rows[offset]) == 0 {
			continue
		}
		periods := rows[offset][1:]
		tokens := make([]string, 0, len(periods))
		for i, text := range periods {
			token, known := ClassifyPeriod(text, mapping)
			if !known {
				hint, score := closestCode(token, mapping)
				c.tel.ReportWarning(
					report_client_weekly_schedule,
					fmt.Errorf("period %s/%d: %q resolved to unknown code %s", day, i+1, text, token),
					hint,
					score,
				)
			}
			tokens = append(tokens, token)
		}
		schedule[day] = tokens
	}
	return schedule, nil
}

// Timetable fetches the course code to course name mapping.
func (c *Client) Timetable(ctx context.Context) (CourseMapping, Status) {
	if !c.Authenticated() {
		return NewCourseMapping(), statusFailed("Authentication failed", ErrAuthentication)
	}

	ctx, span := tracer.Start(ctx, "client:Timetable")
	defer span.End()

	p, err := c.getPage(ctx, timetablePath)
	if err != nil {
		c.tel.ReportBroken(report_client_timetable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return NewCourseMapping(), statusFailed(fmt.Sprintf("Error: %v", err), err)
	}

	mapping, err := c.parseCourseMapping(p.doc)
	if err != nil {
		c.tel.ReportWarning(report_client_timetable, err)
		span.RecordError(err)
		return mapping, statusFailed("Timetable not available", err)
	}
	return mapping, statusOk("Success")
}

// WeeklySchedule fetches the weekly grid. Course codes are matched against the
// mapping found on the same page. A page without a grid is not an error, every day
// is left empty.
func (c *Client) WeeklySchedule(ctx context.Context) (WeeklySchedule, Status) {
	if !c.Authenticated() {
		return emptySchedule(), statusFailed("Authentication failed", ErrAuthentication)
	}

	ctx, span := tracer.Start(ctx, "client:WeeklySchedule")
	defer span.End()

	p, err := c.getPage(ctx, timetablePath)
	if err != nil {
		c.tel.ReportBroken(report_client_weekly_schedule, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return emptySchedule(), statusFailed(fmt.Sprintf("Error: %v", err), err)
	}

	mapping, err := c.parseCourseMapping(p.doc)
	if err != nil {
		c.tel.ReportWarning(report_client_weekly_schedule, fmt.Errorf("course mapping: %w", err))
	}

	schedule, err := c.parseWeeklySchedule(p.doc, mapping)
	if err != nil {
		c.tel.ReportWarning(report_client_weekly_schedule, err)
		return schedule, Status{
			OK:      true,
			Message: "Weekly timetable not available",
			Err:     err,
		}
	}
	return schedule, statusOk("Success")
}
