package ecampus

import (
	"bunker-backend/pkg/htmlutil"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const report_client_profile = "client.profile"

func parseStudentName(doc *goquery.Document) (string, error) {
	span := doc.Find("span#lbluser").First()
	if span.Length() == 0 {
		return "", fmt.Errorf("%w: span#lbluser: %w", ErrMalformedPage, htmlutil.ErrNotFound)
	}
	name := htmlutil.NormalizeSpace(span.Text())
	if name == "" {
		return "", fmt.Errorf("%w: span#lbluser is empty", ErrMalformedPage)
	}
	return name, nil
}

// Profile fetches the student's identity, the display name falls back to
// DefaultStudentName whenever it cannot be read.
func (c *Client) Profile(ctx context.Context) (StudentProfile, Status) {
	profile := StudentProfile{DisplayName: DefaultStudentName}
	if !c.Authenticated() {
		return profile, statusFailed("Authentication failed", ErrAuthentication)
	}

	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	p, err := c.getPage(ctx, timetablePath)
	if err != nil {
		c.tel.ReportBroken(report_client_profile, err)
		span.RecordError(err)
		return profile, statusFailed(fmt.Sprintf("Error: %v", err), err)
	}

	name, err := parseStudentName(p.doc)
	if err != nil {
		c.tel.ReportWarning(report_client_profile, err)
		return profile, statusFailed("Student name not available", err)
	}
	profile.DisplayName = name
	return profile, statusOk("Success")
}

func (c *Client) StudentName(ctx context.Context) string {
	profile, _ := c.Profile(ctx)
	return profile.DisplayName
}
