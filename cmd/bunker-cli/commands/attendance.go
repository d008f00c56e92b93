package commands

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/internal/components/telemetry"
	"bunker-backend/internal/export"
	"bunker-backend/internal/service"
	"bunker-backend/lib/util/serviceutil"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	attendanceFormat    string
	attendanceThreshold float64
)

func init() {
	addCredentialFlags(attendanceCmd)
	attendanceCmd.Flags().StringVar(&attendanceFormat, "format", "table", "Output format, one of table or csv.")
	attendanceCmd.Flags().Float64Var(&attendanceThreshold, "threshold", 0, "Minimum attendance percentage, overrides the config.")
	rootCmd.AddCommand(attendanceCmd)
}

func formatAdvice(advice bunk.Advice) string {
	switch {
	case advice.Action == bunk.CAN_BUNK && advice.Count > 0:
		return fmt.Sprintf("can bunk %d", advice.Count)
	case advice.Action == bunk.ATTEND && advice.Count > 0:
		return fmt.Sprintf("attend %d", advice.Count)
	}
	return "on the edge"
}

func renderSubjects(out io.Writer, subjects []service.Subject) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Code", "Name", "Attended", "Total", "%", "Advice"})
	for _, s := range subjects {
		t.AppendRow(table.Row{
			s.Code,
			s.Name,
			s.Attended,
			s.Total,
			fmt.Sprintf("%.2f", s.Percentage),
			formatAdvice(s.Advice),
		})
	}
	t.Render()
}

var attendanceCmd = &cobra.Command{
	Use:   "attendance [--format table|csv]",
	Short: "Logs in and prints every subject's attendance with how many classes to attend or skip.",
	Run: func(cmd *cobra.Command, args []string) {
		if attendanceFormat != "table" && attendanceFormat != "csv" {
			serviceutil.Fatal("attendance", fmt.Errorf("unknown format %q", attendanceFormat))
		}

		cfg := readConfig()
		if attendanceThreshold != 0 {
			cfg.Threshold = attendanceThreshold
		}

		result, err := login(cmd.Context(), cfg, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("login", err)
		}

		if attendanceFormat == "csv" {
			err = export.WriteSubjectsCsv(os.Stdout, result.Subjects)
			if err != nil {
				serviceutil.Fatal("write csv", err)
			}
			return
		}

		fmt.Printf("%s (threshold %.0f%%)\n", result.StudentName, cfg.Threshold)
		renderSubjects(os.Stdout, result.Subjects)
	},
}
