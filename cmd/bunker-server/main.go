package main

import (
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/config"
	"bunker-backend/internal/server"
	"bunker-backend/internal/service"
	"bunker-backend/internal/sessionstore"
	"bunker-backend/lib/util/serviceutil"
	"context"
	"flag"
)

const report_purge = "purge-expired"

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The config file to read.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel := InitTelemetry(ctx, *verbose, cfg.Telemetry)

	svc, err := service.NewService(
		service.NewEcampusPortal(cfg.Portal.ClientOptions(), tel),
		service.WithThreshold(cfg.Threshold),
		service.WithTelemetryAPI(tel),
	)
	if err != nil {
		serviceutil.Fatal("init service", err)
	}

	store, err := sessionstore.Open(ctx, cfg.Sessions.Database, sessionstore.Options{
		Lifetime: cfg.Sessions.Lifetime(),
		Tel:      tel,
	})
	if err != nil {
		serviceutil.Fatal("open session store", err)
	}
	defer store.Close()

	cron := chrono.NewStandardCron(tel)
	defer cron.Stop()
	err = cron.Cron(cfg.Sessions.PurgeCron, func() {
		_, err := store.PurgeExpired(context.Background())
		if err != nil {
			tel.ReportBroken(report_purge, err)
		}
	})
	if err != nil {
		serviceutil.Fatal("schedule session purge", err)
	}

	srv := server.NewServer(svc, store, server.Options{
		CookieName:   cfg.Server.CookieName,
		SecureCookie: cfg.Server.SecureCookie,
		Lifetime:     cfg.Sessions.Lifetime(),
		Tel:          tel,
	})

	err = serviceutil.StartHttpServer(ctx, cfg.Server.Port, srv.Handler())
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
