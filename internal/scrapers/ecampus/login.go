package ecampus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

type AuthState int

const (
	STATE_INITIAL AuthState = iota
	STATE_PAGE_FETCHED
	STATE_TOKEN_EXTRACTED
	STATE_SUBMITTED
	STATE_AUTHENTICATED
	STATE_FAILED
)

func (s AuthState) String() string {
	switch s {
	case STATE_INITIAL:
		return "initial"
	case STATE_PAGE_FETCHED:
		return "page_fetched"
	case STATE_TOKEN_EXTRACTED:
		return "token_extracted"
	case STATE_SUBMITTED:
		return "submitted"
	case STATE_AUTHENTICATED:
		return "authenticated"
	case STATE_FAILED:
		return "failed"
	}
	return fmt.Sprintf("AuthState(%d)", int(s))
}

// the portal answers a rejected login with a 200 page carrying this text
const invalidCredentialsMarker = "Invalid"

var stateFields = []string{
	"__VIEWSTATE",
	"__EVENTVALIDATION",
	"__VIEWSTATEGENERATOR",
}

type loginForm struct {
	action string
	fields map[string]string
}

// extractLoginForm reads the hidden state fields and the submission target of the
// login form. pageUrl is the url the login page was finally served from.
func extractLoginForm(doc *goquery.Document, pageUrl *url.URL) (loginForm, error) {
	fields := make(map[string]string, len(stateFields))
	for _, name := range stateFields {
		value, ok := doc.Find(fmt.Sprintf("input[name=%s]", name)).First().Attr("value")
		if !ok {
			return loginForm{}, fmt.Errorf("%w: missing %s", ErrMalformedLoginPage, name)
		}
		fields[name] = value
	}

	form := doc.Find("input[name=__VIEWSTATE]").First().Closest("form")
	if form.Length() == 0 {
		form = doc.Find("form").First()
	}
	action := strings.TrimSpace(form.AttrOr("action", ""))

	target := pageUrl
	if action != "" {
		resolved, err := pageUrl.Parse(action)
		if err != nil {
			return loginForm{}, fmt.Errorf("%w: form action %q: %w", ErrMalformedLoginPage, action, err)
		}
		target = resolved
	}

	return loginForm{
		action: target.String(),
		fields: fields,
	}, nil
}

// Authenticate runs the login handshake. Every failure is absorbed and reported, the
// cause stays available through LastError.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) bool {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	c.state = STATE_INITIAL
	c.lastErr = nil

	err := c.login(ctx, creds)
	if err != nil {
		c.state = STATE_FAILED
		c.lastErr = err

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, ErrAuthentication) {
			c.tel.ReportWarning(report_client_authenticate, err)
		} else {
			c.tel.ReportBroken(report_client_authenticate, err)
		}
		return false
	}

	c.state = STATE_AUTHENTICATED
	return true
}

func (c *Client) login(ctx context.Context, creds Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("%w: credentials required", ErrAuthentication)
	}

	loginPage, err := c.getPage(ctx, loginPath)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	c.state = STATE_PAGE_FETCHED

	pageUrl := loginPage.url
	if pageUrl == nil {
		pageUrl, _ = url.Parse(c.endpoint(loginPath))
	}
	form, err := extractLoginForm(loginPage.doc, pageUrl)
	if err != nil {
		return err
	}
	c.state = STATE_TOKEN_EXTRACTED

	formData := map[string]string{
		"rdolst":       "S",
		"txtusercheck": creds.Username,
		"txtpwdcheck":  creds.Password,
		"abcd3":        "Login",
	}
	for k, v := range form.fields {
		formData[k] = v
	}

	c.tel.ReportDebug(report_client_authenticate, "submit", form.action)
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(formData).
		Post(form.action)
	c.state = STATE_SUBMITTED
	if err != nil {
		return fmt.Errorf("%w: submit login: %w", ErrNetwork, err)
	}

	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: login returned status %d", ErrAuthentication, res.StatusCode())
	}
	if strings.Contains(res.String(), invalidCredentialsMarker) {
		return fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	}
	return nil
}
