package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wattmon/wattmon/internal/meter"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch and print the current meter state once",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("save", false, "Also append the reading to history")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	endpoint, err := resolveEndpoint(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	acquirer := meter.NewAcquirer(endpoint, cfg.Meter.MaxAttempts, cfg.Meter.RetryDelayDuration(), logger)
	reading, err := acquirer.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch reading: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Remaining Energy:\t%.2f kWh\n", reading.RemainingEnergy)
	fmt.Fprintf(w, "Remaining Amount:\t%.2f\n", reading.RemainingAmount)
	fmt.Fprintf(w, "Total Consumption:\t%.2f kWh\n", reading.TotalConsumption)
	fmt.Fprintf(w, "Price:\t%.4f per kWh\n", reading.Price)
	if reading.MeterStatus != "" {
		fmt.Fprintf(w, "Meter Status:\t%s\n", reading.MeterStatus)
	}
	fmt.Fprintf(w, "Source Update Time:\t%s\n", reading.SourceUpdateTime)
	if reading.RemainingEnergy <= cfg.Alerting.Threshold {
		fmt.Fprintf(w, "Warning:\tlow energy (threshold %.1f kWh)\n", cfg.Alerting.Threshold)
	}
	w.Flush()

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := initStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.AppendReading(ctx, reading); err != nil {
			return fmt.Errorf("save reading: %w", err)
		}
		fmt.Println("\nReading saved to history.")
	}

	return nil
}
