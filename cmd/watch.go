package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/kmrl-dash/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the live dashboard until interrupted",
	RunE:  watch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.WithTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer closeService(svc)
	return svc.Run(ctx)
}
