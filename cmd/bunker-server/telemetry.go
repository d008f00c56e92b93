package main

import (
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/lib/util/serviceutil"
	"context"
	"log/slog"
	"time"
)

// InitTelemetry installs logging and otel, the returned API reports counts as otel
// gauges.
func InitTelemetry(ctx context.Context, verbose bool, cfg telemetry.Config) telemetry.API {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	otel, err := telemetry.Setup(ctx, "bunker-server", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := otel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	tel, err := telemetry.NewMetricsAPI(telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("setup metrics", err)
	}
	telemetry.InstrumentPerfStats(ctx, tel)

	return tel
}
