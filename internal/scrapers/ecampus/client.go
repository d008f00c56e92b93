package ecampus

import (
	"bunker-backend/internal/components/assert"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/lib/util/restyutil"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var tracer = telemetry.Tracer("bunker.scrapers.ecampus")

const (
	report_client_authenticate = "client.authenticate"
	report_client_get_document = "client.get-document"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout bounds every request, it defaults to 30 seconds.
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
	// Output receives every exchange with the portal when set.
	Output restyutil.InstrumentOutput
}

// Client is the transport context of a single login attempt. It owns its cookie jar,
// so two clients never share portal state.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	tel     telemetry.API

	state   AuthState
	lastErr error
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("ecampus", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}

	// relative page paths must resolve under the base directory
	if !strings.HasSuffix(opts.BaseUrl, "/") {
		opts.BaseUrl += "/"
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", opts.BaseUrl)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		transport := httpClient.GetClient().Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
	)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRetryCount(0)

	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.DumpResponses(httpClient, opts.Output)

	return &Client{
		baseUrl: baseUrl,
		http:    httpClient,
		tel:     tel,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseUrl.ResolveReference(&url.URL{Path: path}).String()
}

// State is the last state the authenticator reached.
func (c *Client) State() AuthState {
	return c.state
}

// LastError is the reason authentication failed, nil if it did not.
func (c *Client) LastError() error {
	return c.lastErr
}

func (c *Client) Authenticated() bool {
	return c.state == STATE_AUTHENTICATED
}

// page is a fetched and parsed portal page.
type page struct {
	url  *url.URL
	body []byte
	doc  *goquery.Document
}

func finalUrl(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	parsed, err := url.Parse(res.Request.URL)
	if err != nil {
		return nil
	}
	return parsed
}

func (c *Client) getPage(ctx context.Context, path string) (page, error) {
	endpoint := c.endpoint(path)
	c.tel.ReportDebug(report_client_get_document, endpoint)

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return page{}, fmt.Errorf("%w: GET %s: %w", ErrNetwork, path, err)
	}
	if res.StatusCode() != http.StatusOK {
		return page{}, fmt.Errorf("%w: GET %s: unexpected status %d", ErrNetwork, path, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return page{}, fmt.Errorf("%w: parse %s: %w", ErrMalformedPage, path, err)
	}
	return page{
		url:  finalUrl(res),
		body: res.Body(),
		doc:  doc,
	}, nil
}
