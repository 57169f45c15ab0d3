package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aduval/bessplan/app"
	"github.com/aduval/bessplan/config"
	"github.com/aduval/bessplan/infra/logger"
	"github.com/aduval/bessplan/pkg/export"
)

var (
	planScheduleOut string
	planMonthsOut   string
	planSummaryOut  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Optimize dispatch over the input series and price the project",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planScheduleOut, "schedule", "", "write the dispatch schedule CSV here")
	planCmd.Flags().StringVar(&planMonthsOut, "months", "", "write the monthly demand charge CSV here")
	planCmd.Flags().StringVar(&planSummaryOut, "summary", "", "write the run summary JSON here")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	out, err := svc.RunPlan(ctx)
	if err != nil {
		return err
	}
	if err := writePlanFiles(out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: total cost %.2f (baseline %.2f), NPV %.2f\n",
		out.RunID, out.Plan.TotalCost, out.Baseline.TotalCost, out.Economics.NPV)
	return nil
}

func writePlanFiles(out app.PlanOutcome) error {
	if planScheduleOut != "" {
		err := writeFile(planScheduleOut, func(f *os.File) error {
			return export.WriteScheduleCSV(f, out.Plan)
		})
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}
	if planMonthsOut != "" {
		err := writeFile(planMonthsOut, func(f *os.File) error {
			return export.WriteMonthsCSV(f, out.Plan.Months)
		})
		if err != nil {
			return fmt.Errorf("months: %w", err)
		}
	}
	if planSummaryOut != "" {
		err := writeFile(planSummaryOut, func(f *os.File) error {
			return export.WriteSummaryJSON(f, summaryOf(out))
		})
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
	}
	return nil
}

func summaryOf(out app.PlanOutcome) export.Summary {
	return export.Summary{
		RunID:       out.RunID,
		GeneratedAt: time.Now().UTC(),
		CapacityKWh: out.Battery.CapacityKWh,
		PowerKW:     out.Battery.PowerKW,
		Plan:        export.Totals(out.Plan),
		Baseline:    export.Totals(out.Baseline),
		Economics:   export.FromResult(out.Economics),
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
