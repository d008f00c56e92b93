package service

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/components/assert"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/scrapers/ecampus"
	"context"
)

// PortalSession is everything the service reads from one logged in portal visit.
//
// note: fault injection point
type PortalSession interface {
	Authenticated() bool
	AuthError() error
	Attendance(ctx context.Context) ([]ecampus.SubjectAttendance, ecampus.Status)
	Timetable(ctx context.Context) (ecampus.CourseMapping, ecampus.Status)
	WeeklySchedule(ctx context.Context) (ecampus.WeeklySchedule, ecampus.Status)
	StudentName(ctx context.Context) string
}

// PortalAPI opens portal sessions, each call must yield a session that shares no
// cookies with any other.
//
// note: fault injection point
type PortalAPI interface {
	Login(ctx context.Context, creds ecampus.Credentials) (PortalSession, error)
}

type ecampusPortal struct {
	opts ecampus.ClientOptions
	tel  telemetry.API
}

// NewEcampusPortal creates a PortalAPI that logs into the real portal.
func NewEcampusPortal(opts ecampus.ClientOptions, tel telemetry.API) PortalAPI {
	assert.NotNil(tel)
	return ecampusPortal{opts: opts, tel: tel}
}

func (p ecampusPortal) Login(ctx context.Context, creds ecampus.Credentials) (PortalSession, error) {
	return ecampus.NewSession(ctx, p.opts, creds, p.tel)
}

const (
	report_login          = "login"
	report_login_subjects = "login.subjects"
)

// Service implements the login use case on top of the portal.
type Service struct {
	portal    PortalAPI
	threshold float64
	tel       telemetry.API
}

type serviceConfig struct {
	threshold float64
	tel       telemetry.API
}

type Option func(cfg *serviceConfig)

// WithThreshold sets the minimum attendance percentage advice is computed against.
func WithThreshold(threshold float64) Option {
	return func(cfg *serviceConfig) {
		cfg.threshold = threshold
	}
}

func WithTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

// NewService creates a Service, it fails only if the configured threshold cannot be
// used to compute advice.
func NewService(portal PortalAPI, options ...Option) (Service, error) {
	assert.NotNil(portal)

	cfg := serviceConfig{
		threshold: bunk.DefaultThreshold,
		tel:       telemetry.SlogAPI{},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	_, err := bunk.ComputeChecked(0, 0, 0, cfg.threshold)
	if err != nil {
		return Service{}, err
	}

	return Service{
		portal:    portal,
		threshold: cfg.threshold,
		tel:       telemetry.NewScopedAPI("service", cfg.tel),
	}, nil
}

func (s Service) Threshold() float64 {
	return s.threshold
}
