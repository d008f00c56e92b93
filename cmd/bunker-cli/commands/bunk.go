package commands

import (
	"bunker-backend/internal/bunk"
	"bunker-backend/lib/util/serviceutil"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var bunkThreshold float64

func init() {
	bunkCmd.Flags().Float64Var(&bunkThreshold, "threshold", bunk.DefaultThreshold, "Minimum attendance percentage.")
	rootCmd.AddCommand(bunkCmd)
}

func parseBunkArgs(args []string) (percentage float64, total, attended int, err error) {
	percentage, err = strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("percentage: %w", err)
	}
	total, err = strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("total: %w", err)
	}
	attended, err = strconv.Atoi(args[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("attended: %w", err)
	}
	return percentage, total, attended, nil
}

func describeAdvice(advice bunk.Advice, threshold float64) string {
	switch advice.Action {
	case bunk.CAN_BUNK:
		return fmt.Sprintf("You can skip %d more classes and stay at or above %g%%.", advice.Count, threshold)
	default:
		return fmt.Sprintf("You need to attend %d more classes to reach %g%%.", advice.Count, threshold)
	}
}

var bunkCmd = &cobra.Command{
	Use:   "bunk <percentage> <total> <attended> [--threshold <percent>]",
	Short: "Computes how many classes you can skip or must attend without logging in.",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		percentage, total, attended, err := parseBunkArgs(args)
		if err != nil {
			serviceutil.Fatal("parse arguments", err)
		}
		advice, err := bunk.ComputeChecked(percentage, total, attended, bunkThreshold)
		if err != nil {
			serviceutil.Fatal("compute", err)
		}
		fmt.Println(describeAdvice(advice, bunkThreshold))
	},
}
