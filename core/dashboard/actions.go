package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/view"
	"github.com/kilianp07/kmrl-dash/pkg/export"
)

// Action names, as published in events.ActionCompleted.
const (
	ActionBootstrap = "bootstrap"
	ActionGenerate  = "generate_data"
	ActionOptimize  = "optimize"
	ActionPredict   = "predict_delay"
	ActionExport    = "export_schedule"
	ActionWhatIf    = "whatif"
)

// Notification texts of the actions.
const (
	MsgLoadFailed       = "Failed to load initial data"
	MsgGenerated        = "Data generated successfully"
	MsgGenerateFailed   = "Failed to generate data"
	MsgOptimizeFailed   = "Optimization failed"
	MsgPredicted        = "Delay prediction completed"
	MsgPredictFailed    = "Prediction failed"
	MsgExported         = "Schedule exported successfully"
	MsgExportRejected   = "Failed to export schedule"
	MsgExportFailed     = "Export failed"
	MsgWhatIfDone       = "What-if analysis completed"
	MsgWhatIfFailed     = "Analysis failed"
	MsgRefreshing       = "Refreshing data..."
	MsgScheduleRefresh  = "Schedule refreshed"
	MsgTrainNotFound    = "Train details not found"
	msgOptimizeRunning  = "Running %s optimization..."
	msgOptimizeComplete = "%s optimization completed successfully"
	msgChartUpdated     = "%s chart updated"
)

// Bootstrap loads the status and then the schedule. A failed status fetch
// does not prevent the schedule from loading; any failure is toasted once.
// The busy overlay is cleared on every path.
func (c *Controller) Bootstrap(ctx context.Context) (err error) {
	c.setBusy(true)
	defer c.setBusy(false)
	start := c.now()
	defer func() { c.completed(ActionBootstrap, start, "", err) }()

	var statusErr, scheduleErr error
	if p, err := c.api.SystemStatus(ctx); err != nil {
		statusErr = fmt.Errorf("load status: %w", err)
	} else {
		c.applyStatus(p, events.SourceBootstrap)
	}

	rows, err := c.api.CurrentSchedule(ctx)
	switch {
	case errors.Is(err, api.ErrNoSchedule):
	case err != nil:
		scheduleErr = fmt.Errorf("load schedule: %w", err)
	default:
		c.replaceSchedule(rows, events.SourceBootstrap)
	}

	if err := errors.Join(statusErr, scheduleErr); err != nil {
		c.notes.Error(MsgLoadFailed)
		return err
	}
	return nil
}

// GenerateData asks the backend to synthesise fleet data.
func (c *Controller) GenerateData(ctx context.Context) error {
	req := api.GenerateRequest{NumTrains: c.cfg.NumTrains, IncludeDelays: c.cfg.includeDelays()}
	return c.run(ctx, ActionGenerate, MsgGenerateFailed, func(ctx context.Context) (string, error) {
		if _, err := c.api.GenerateData(ctx, req); err != nil {
			return "", err
		}
		return MsgGenerated, nil
	})
}

// RunOptimization runs algorithm with the configured constraints. On success
// the table shows the schedule preview, when the response carries one, and
// the status is refetched.
func (c *Controller) RunOptimization(ctx context.Context, algorithm string) error {
	c.notes.Info(fmt.Sprintf(msgOptimizeRunning, algorithm))
	req := api.OptimizeRequest{
		Algorithm: algorithm,
		Constraints: api.Constraints{
			ServiceQuota:   c.cfg.ServiceQuota,
			MaxMaintenance: c.cfg.MaxMaintenance,
		},
	}
	return c.run(ctx, ActionOptimize, MsgOptimizeFailed, func(ctx context.Context) (string, error) {
		res, err := c.api.OptimizeSchedule(ctx, req)
		if err != nil {
			return "", err
		}
		if res.SchedulePreview != nil {
			c.replaceSchedule(*res.SchedulePreview, events.SourceAction)
		}
		c.refreshStatus(ctx, events.SourceAction)
		return fmt.Sprintf(msgOptimizeComplete, algorithm), nil
	})
}

// PredictDelay asks for a delay prediction. Zero inputs take the form
// defaults.
func (c *Controller) PredictDelay(ctx context.Context, in model.PredictInput) (model.Prediction, error) {
	in = in.WithDefaults()
	var out model.Prediction
	err := c.run(ctx, ActionPredict, MsgPredictFailed, func(ctx context.Context) (string, error) {
		p, err := c.api.PredictDelays(ctx, in)
		if err != nil {
			return "", err
		}
		out = p
		text := view.PredictionPanel(p)
		c.mu.Lock()
		c.prediction = &p
		for _, s := range c.results {
			s.RenderPrediction(text)
		}
		c.mu.Unlock()
		return MsgPredicted, nil
	})
	return out, err
}

// ExportSchedule downloads the schedule CSV into the export directory and
// returns the written path. No file is written when the download fails.
func (c *Controller) ExportSchedule(ctx context.Context) (string, error) {
	var path string
	err := c.run(ctx, ActionExport, MsgExportFailed, func(ctx context.Context) (string, error) {
		body, err := c.api.DownloadSchedule(ctx)
		if err != nil {
			var he *api.HTTPError
			if errors.As(err, &he) {
				return "", &failure{msg: MsgExportRejected, err: err}
			}
			return "", err
		}
		defer body.Close()
		p, err := export.SaveFile(c.cfg.ExportDir, export.FileName(c.now()), body)
		if err != nil {
			return "", err
		}
		path = p
		return MsgExported, nil
	})
	return path, err
}

// RunWhatIf analyses a scenario. affected is a comma separated train list.
func (c *Controller) RunWhatIf(ctx context.Context, scenarioType, affected string) (json.RawMessage, error) {
	sc := model.Scenario{Type: scenarioType, AffectedTrains: ParseTrainList(affected)}
	var out json.RawMessage
	err := c.run(ctx, ActionWhatIf, MsgWhatIfFailed, func(ctx context.Context) (string, error) {
		res, err := c.api.WhatIf(ctx, sc)
		if err != nil {
			return "", err
		}
		out = res
		text := view.WhatIfPanel(res)
		c.mu.Lock()
		c.whatIf = res
		for _, s := range c.results {
			s.RenderWhatIf(text)
		}
		c.mu.Unlock()
		return MsgWhatIfDone, nil
	})
	return out, err
}

// Refresh reloads the status and the schedule.
func (c *Controller) Refresh(ctx context.Context) error {
	c.notes.Info(MsgRefreshing)
	return c.Bootstrap(ctx)
}

// RefreshSchedule reloads the schedule only. Failures are logged.
func (c *Controller) RefreshSchedule(ctx context.Context) {
	rows, err := c.api.CurrentSchedule(ctx)
	switch {
	case errors.Is(err, api.ErrNoSchedule):
	case err != nil:
		c.log.Errorf("dashboard: refresh schedule: %v", err)
	default:
		c.replaceSchedule(rows, events.SourceAction)
	}
	c.notes.Info(MsgScheduleRefresh)
}

// UpdateCharts redraws both charts from the current status.
func (c *Controller) UpdateCharts(name string) {
	c.redrawCharts()
	c.notes.Info(fmt.Sprintf(msgChartUpdated, name))
}

// ShowTrainDetails opens the details dialog for id.
func (c *Controller) ShowTrainDetails(id string) error {
	c.mu.Lock()
	row, ok := model.FindTrain(c.schedule, id)
	c.mu.Unlock()
	if !ok {
		c.notes.Error(MsgTrainNotFound)
		return fmt.Errorf("%w: %s", ErrTrainNotFound, id)
	}
	c.modals.Register(DetailsModalID, view.TrainDetailsTitle, view.TrainDetails(row), "close")
	return c.modals.Open(DetailsModalID)
}

// ParseTrainList splits a comma separated list, trimming entries and
// dropping empty ones.
func ParseTrainList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// refreshStatus refetches the status. Failures are logged only.
func (c *Controller) refreshStatus(ctx context.Context, source string) {
	p, err := c.api.SystemStatus(ctx)
	if err != nil {
		c.log.Errorf("dashboard: fetch status: %v", err)
		return
	}
	c.applyStatus(p, source)
}

// failure carries the toast text for an error that must not surface the
// server message.
type failure struct {
	msg string
	err error
}

func (f *failure) Error() string { return f.err.Error() }
func (f *failure) Unwrap() error { return f.err }

// run executes one action between busy on and busy off. A success toasts the
// returned message; a failure toasts the server message or fallback.
func (c *Controller) run(ctx context.Context, name, fallback string, fn func(context.Context) (string, error)) error {
	c.setBusy(true)
	defer c.setBusy(false)
	if d := c.cfg.actionTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	start := c.now()
	msg, err := fn(ctx)
	if err != nil {
		var f *failure
		if errors.As(err, &f) {
			msg = f.msg
		} else {
			msg = api.UserMessage(err, fallback)
		}
		c.log.Errorf("dashboard: %s: %v", name, err)
		c.notes.Error(msg)
	} else {
		c.notes.Success(msg)
	}
	c.completed(name, start, msg, err)
	return err
}

func (c *Controller) completed(name string, start time.Time, msg string, err error) {
	now := c.now()
	c.publish(events.ActionCompleted{
		Action:   name,
		Success:  err == nil,
		Message:  msg,
		Err:      err,
		Duration: now.Sub(start),
		Time:     now,
	})
}
