package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsAPI forwards everything to an inner API and additionally records every
// ReportCount as a point on an otel gauge, keyed by its id.
type MetricsAPI struct {
	inner API
	gauge metric.Int64Gauge
}

func NewMetricsAPI(inner API) (MetricsAPI, error) {
	gauge, err := otel.Meter("bunker.telemetry").Int64Gauge("report_count")
	if err != nil {
		return MetricsAPI{}, err
	}
	return MetricsAPI{inner: inner, gauge: gauge}, nil
}

func (m MetricsAPI) ReportBroken(id string, params ...any) {
	m.inner.ReportBroken(id, params...)
}

func (m MetricsAPI) ReportWarning(id string, params ...any) {
	m.inner.ReportWarning(id, params...)
}

func (m MetricsAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m MetricsAPI) ReportCount(id string, count int64) {
	m.inner.ReportCount(id, count)
	m.gauge.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
}
