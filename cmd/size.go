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

var sizeResultOut string

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Search battery dimensions for the highest project NPV",
	RunE:  runSize,
}

func init() {
	sizeCmd.Flags().StringVar(&sizeResultOut, "result", "", "write the sizing result JSON here")
	rootCmd.AddCommand(sizeCmd)
}

func runSize(cmd *cobra.Command, args []string) error {
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

	out, err := svc.RunSizing(ctx)
	if err != nil {
		return err
	}
	if sizeResultOut != "" {
		err := writeFile(sizeResultOut, func(f *os.File) error {
			return export.WriteSizingJSON(f, export.FromSizing(out.RunID, out.Result))
		})
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
	}

	best := out.Result.Best
	fmt.Fprintf(cmd.OutOrStdout(), "sizing %s: best %.1f kWh / %.1f kW, NPV %.2f (%d evaluations, %d failures)\n",
		out.RunID, best.CapacityKWh, best.PowerKW, best.Score, out.Result.Evaluations, out.Result.Failures)
	return nil
}
