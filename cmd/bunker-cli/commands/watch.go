package commands

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/components/chrono"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/config"
	"bunker-backend/internal/service"
	"bunker-backend/lib/util/serviceutil"
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

const report_watch_check = "watch.check"

var watchNow bool

func init() {
	addCredentialFlags(watchCmd)
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Also check once immediately.")
	rootCmd.AddCommand(watchCmd)
}

// shortfalls returns the subjects that are below the threshold.
func shortfalls(subjects []service.Subject) []service.Subject {
	var out []service.Subject
	for _, s := range subjects {
		if s.Advice.Action == bunk.ATTEND && s.Advice.Count > 0 {
			out = append(out, s)
		}
	}
	return out
}

func check(ctx context.Context, cfg config.Config, tel telemetry.API) {
	result, err := login(ctx, cfg, tel)
	if err != nil {
		tel.ReportBroken(report_watch_check, err)
		return
	}

	short := shortfalls(result.Subjects)
	tel.ReportCount(report_watch_check, int64(len(short)))
	if len(short) == 0 {
		slog.Info("every subject is above the threshold", "threshold", cfg.Threshold)
		return
	}
	for _, s := range short {
		slog.Warn(
			"below threshold",
			"code", s.Code,
			"name", s.Name,
			"percentage", s.Percentage,
			"attend", s.Advice.Count,
		)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch [--now]",
	Short: "Checks attendance on the configured cron schedule and warns about subjects below the threshold.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		tel := telemetry.NewScopedAPI("bunker-cli", telemetry.SlogAPI{})

		cron := chrono.NewStandardCron(tel)
		err := cron.Cron(cfg.Watch.Cron, func() {
			check(ctx, cfg, tel)
		})
		if err != nil {
			serviceutil.Fatal("schedule watch", err)
		}
		slog.Info("watching attendance", "cron", cfg.Watch.Cron)

		if watchNow {
			check(ctx, cfg, tel)
		}

		<-ctx.Done()
		cron.Stop()
	},
}
