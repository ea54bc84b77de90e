package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/kmrl-dash/app"
	"github.com/kilianp07/kmrl-dash/core/dashboard"
	"github.com/kilianp07/kmrl-dash/core/modal"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/notify"
	"github.com/kilianp07/kmrl-dash/core/view"
	"github.com/kilianp07/kmrl-dash/pkg/export"
)

var (
	scheduleFormat string
	predictInput   model.PredictInput
	whatIfType     string
	whatIfTrains   string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the fleet status",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
		if err := c.Bootstrap(ctx); err != nil {
			return err
		}
		st := c.Status()
		for _, card := range view.StatCards(st) {
			fmt.Fprintf(out, "%-20s %s\n", card.Title, card.Value)
		}
		fmt.Fprintf(out, "%-20s %s\n", "System Health", view.Health(st.SystemHealth).Text)
		return nil
	}),
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the current induction schedule",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
		if err := c.Bootstrap(ctx); err != nil {
			return err
		}
		return writeSchedule(out, c.Schedule())
	}),
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic fleet data",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, _ io.Writer) error {
		return c.GenerateData(ctx)
	}),
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <algorithm>",
	Short: "Run a schedule optimization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
			if err := c.RunOptimization(ctx, args[0]); err != nil {
				return err
			}
			return writeSchedule(out, c.Schedule())
		})(cmd, args)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the delay of a trip",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
		p, err := c.PredictDelay(ctx, predictInput)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, view.PredictionPanel(p))
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the schedule CSV into the export directory",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
		path, err := c.ExportSchedule(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	}),
}

var whatIfCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Run a what-if scenario analysis",
	Args:  cobra.NoArgs,
	RunE: oneShot(func(ctx context.Context, c *dashboard.Controller, out io.Writer) error {
		res, err := c.RunWhatIf(ctx, whatIfType, whatIfTrains)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, view.WhatIfPanel(res))
		return nil
	}),
}

var trainCmd = &cobra.Command{
	Use:   "train <id>",
	Short: "Show the details of one train",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oneShot(func(ctx context.Context, c *dashboard.Controller, _ io.Writer) error {
			if err := c.Bootstrap(ctx); err != nil {
				return err
			}
			return c.ShowTrainDetails(args[0])
		})(cmd, args)
	},
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "table", "output format: table, csv or json")
	predictCmd.Flags().Float64Var(&predictInput.DwellTime, "dwell", 0, "dwell time in seconds (default 60)")
	predictCmd.Flags().Float64Var(&predictInput.Distance, "distance", 0, "distance in km (default 8.5)")
	predictCmd.Flags().Float64Var(&predictInput.LoadFactor, "load", 0, "load factor between 0 and 1 (default 0.7)")
	whatIfCmd.Flags().StringVar(&whatIfType, "type", "train_failure", "scenario type")
	whatIfCmd.Flags().StringVar(&whatIfTrains, "trains", "", "comma separated affected trains")

	rootCmd.AddCommand(statusCmd, scheduleCmd, generateCmd, optimizeCmd, predictCmd, exportCmd, whatIfCmd, trainCmd)
}

// oneShot builds a service without the realtime channel, runs fn once and
// prints toasts to stderr and dialogs to stdout.
func oneShot(fn func(context.Context, *dashboard.Controller, io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, err := app.New(cfg, app.WithoutRealtime())
		if err != nil {
			return err
		}
		defer closeService(svc)

		out := cmd.OutOrStdout()
		svc.Controller.AddTarget(&printer{out: out, errOut: cmd.ErrOrStderr()})
		return svc.Do(ctx, func(ctx context.Context, c *dashboard.Controller) error {
			return fn(ctx, c, out)
		})
	}
}

func writeSchedule(out io.Writer, rows []model.ScheduleRow) error {
	switch scheduleFormat {
	case "csv":
		return export.WriteCSV(out, rows)
	case "json":
		return export.WriteJSON(out, rows)
	}
	for _, r := range view.ScheduleTable(rows) {
		if r.Empty {
			fmt.Fprintln(out, r.Message)
			continue
		}
		fmt.Fprintf(out, "%-8s %-12s %6s %-4s %4s %-4s %s\n",
			r.TrainID, r.Status, r.Score, r.Fitness, r.JobCards, r.Branding, r.Delay)
	}
	return nil
}

// printer shows toasts and dialogs of a one-shot command.
type printer struct {
	out    io.Writer
	errOut io.Writer
}

func (p *printer) ShowToast(n notify.Notification) {
	fmt.Fprintf(p.errOut, "[%s] %s\n", n.Kind, n.Message)
}

func (p *printer) HideToast(notify.Notification)   {}
func (p *printer) RemoveToast(notify.Notification) {}

func (p *printer) ShowModal(m modal.Modal) {
	fmt.Fprintf(p.out, "%s\n%s\n", m.Title, m.Content)
}

func (p *printer) HideModal(modal.Modal) {}
