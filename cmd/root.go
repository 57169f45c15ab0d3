package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "bessplan",
	Short: "Battery storage dispatch planning and sizing",
	Long: `bessplan prices battery storage against a site's production, load and
price series: it plans optimal dispatch, evaluates the project economics,
searches storage dimensions and solves break-even purchase prices.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
