package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aduval/bessplan/app"
	"github.com/aduval/bessplan/config"
	"github.com/aduval/bessplan/pkg/export"
)

var breakevenSummaryOut string

var breakevenCmd = &cobra.Command{
	Use:   "breakeven",
	Short: "Solve the storage purchase price at which the project NPV is zero",
	RunE:  runBreakeven,
}

func init() {
	breakevenCmd.Flags().StringVar(&breakevenSummaryOut, "summary", "", "write the priced plan summary JSON here")
	rootCmd.AddCommand(breakevenCmd)
}

func runBreakeven(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)
	svc.Start(ctx)

	out, err := svc.RunBreakEven(ctx)
	if err != nil {
		return err
	}
	if breakevenSummaryOut != "" {
		err := writeFile(breakevenSummaryOut, func(f *os.File) error {
			return export.WriteSummaryJSON(f, summaryOf(out.Plan))
		})
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "break-even %s: %.2f per kWh (configured cost %.2f)\n",
		out.RunID, out.CostPerKWh, cfg.Battery.CostPerKWh)
	return nil
}
