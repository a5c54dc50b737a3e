package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wattmon/wattmon/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print history statistics and write the HTML report pages",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("out", "o", "", "Output directory for HTML pages (default: report.dir from config)")
	reportCmd.Flags().Bool("no-html", false, "Only print the console summary")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	est, err := initEstimator(cfg)
	if err != nil {
		return err
	}

	writer := report.NewWriter(store, est, cfg.Alerting.Threshold, logger)

	data, err := writer.Summary(cmd.Context())
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}

	fmt.Println("=== Meter History Summary ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Readings:\t%d\n", data.Stats.ReadingCount)
	fmt.Fprintf(w, "Alerts:\t%d\n", data.Stats.AlertCount)
	fmt.Fprintf(w, "Remaining energy:\tmin %.2f / max %.2f / avg %.2f kWh\n",
		data.Stats.MinEnergy, data.Stats.MaxEnergy, data.Stats.AvgEnergy)
	fmt.Fprintf(w, "Remaining amount:\tmin %.2f / max %.2f / avg %.2f\n",
		data.Stats.MinAmount, data.Stats.MaxAmount, data.Stats.AvgAmount)
	fmt.Fprintf(w, "Latest consumption:\t%.2f kWh\n", data.Stats.LatestConsumption)
	if data.Latest != nil {
		fmt.Fprintf(w, "Estimated daily use:\t%.1f kWh\n", data.DailyKWh)
		fmt.Fprintf(w, "Estimated weekly use:\t%.1f kWh\n", data.WeeklyKWh)
		fmt.Fprintf(w, "Estimated days remaining:\t%.1f\n", data.DaysRemaining)
	}
	w.Flush()

	if noHTML, _ := cmd.Flags().GetBool("no-html"); noHTML {
		return nil
	}

	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		dir = cfg.Report.Dir
	}
	if err := writer.WriteAll(cmd.Context(), dir); err != nil {
		return fmt.Errorf("write report pages: %w", err)
	}
	fmt.Printf("\nHTML pages written to %s/\n", dir)
	return nil
}
