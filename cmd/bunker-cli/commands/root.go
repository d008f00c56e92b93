package commands

import (
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/config"
	"bunker-backend/internal/service"
	"bunker-backend/lib/util/restyutil"
	"bunker-backend/lib/util/serviceutil"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	username   string
	password   string
)

var rootCmd = &cobra.Command{
	Use:   "bunker-cli",
	Short: "bunker-cli reads your eCampus attendance and tells you which classes you can skip.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

// addCredentialFlags registers the flags that override the configured credentials.
func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&username, "username", "u", "", "Roll number, overrides the config.")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, overrides the config.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if username != "" {
		cfg.Credentials.Username = username
	}
	if password != "" {
		cfg.Credentials.Password = password
	}
	return cfg
}

func login(ctx context.Context, cfg config.Config, tel telemetry.API) (service.LoginResult, error) {
	opts := cfg.Portal.ClientOptions()
	if verbose {
		output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/ecampus")
		if err != nil {
			return service.LoginResult{}, err
		}
		slog.Debug("writing portal exchanges", "dir", output.Dir())
		opts.Output = output
	}

	svc, err := service.NewService(
		service.NewEcampusPortal(opts, tel),
		service.WithThreshold(cfg.Threshold),
		service.WithTelemetryAPI(tel),
	)
	if err != nil {
		return service.LoginResult{}, err
	}
	return svc.Login(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
