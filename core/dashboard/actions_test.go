package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

func TestGenerateData(t *testing.T) {
	f := &fakeAPI{}
	c, rec := newTestController(f)

	require.NoError(t, c.GenerateData(context.Background()))
	require.Len(t, f.generated, 1)
	assert.Equal(t, api.GenerateRequest{NumTrains: 25, IncludeDelays: true}, f.generated[0])
	assert.Equal(t, []string{"success:" + MsgGenerated}, rec.messages())
	assert.Equal(t, []bool{false, true, false}, rec.busyTrail())
}

/*
Cases:
- server message is surfaced when the backend supplied one
- fallback text otherwise
- busy is cleared on failure
*/
func TestActionFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"app error", &api.AppError{Path: api.PathGenerateData, Status: "error", Message: "Generator offline"}, "error:Generator offline"},
		{"http error", &api.HTTPError{Method: "POST", Path: api.PathGenerateData, StatusCode: 500, Message: "Internal failure"}, "error:Internal failure"},
		{"transport", errors.New("connection reset"), "error:" + MsgGenerateFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestController(&fakeAPI{generateErr: tc.err})
			err := c.GenerateData(context.Background())
			require.Error(t, err)
			assert.Equal(t, []string{tc.want}, rec.messages())
			assert.False(t, c.Busy())
		})
	}
}

func TestRunOptimization(t *testing.T) {
	f := &fakeAPI{
		status:      fleetPatch(13, 4, 8, model.HealthGood),
		optimizeRes: api.OptimizeResult{SchedulePreview: &[]model.ScheduleRow{{TrainID: "T1"}, {TrainID: "T2"}}},
	}
	c, rec := newTestController(f)

	require.NoError(t, c.RunOptimization(context.Background(), "genetic"))

	require.Len(t, f.optimized, 1)
	assert.Equal(t, api.OptimizeRequest{
		Algorithm:   "genetic",
		Constraints: api.Constraints{ServiceQuota: 13, MaxMaintenance: 8},
	}, f.optimized[0])
	assert.Len(t, rec.lastTable(), 2)
	assert.Equal(t, 1, f.statusCalls)
	assert.Equal(t, 13, c.Status().ActiveTrains)
	assert.Equal(t, []string{
		"info:Running genetic optimization...",
		"success:genetic optimization completed successfully",
	}, rec.messages())
}

func TestRunOptimization_FailureKeepsTable(t *testing.T) {
	f := &fakeAPI{optimizeErr: errors.New("solver crashed")}
	c, rec := newTestController(f)
	before := len(rec.tables)

	require.Error(t, c.RunOptimization(context.Background(), "pulp"))
	assert.Len(t, rec.tables, before)
	assert.Zero(t, f.statusCalls)
	assert.Equal(t, "error:"+MsgOptimizeFailed, rec.messages()[1])
}

func TestRunOptimization_WithoutPreviewKeepsTable(t *testing.T) {
	f := &fakeAPI{schedule: []model.ScheduleRow{{TrainID: "T1"}}}
	c, rec := newTestController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	before := len(rec.tables)

	require.NoError(t, c.RunOptimization(context.Background(), "genetic"))
	assert.Len(t, rec.tables, before)
	require.Len(t, c.Schedule(), 1)
	assert.Equal(t, "T1", rec.lastTable()[0].TrainID)
	assert.Equal(t, 2, f.statusCalls, "status is still refetched")
}

func TestRunOptimization_EmptyPreviewClearsTable(t *testing.T) {
	f := &fakeAPI{
		schedule:    []model.ScheduleRow{{TrainID: "T1"}},
		optimizeRes: api.OptimizeResult{SchedulePreview: &[]model.ScheduleRow{}},
	}
	c, rec := newTestController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	require.NoError(t, c.RunOptimization(context.Background(), "genetic"))
	assert.Empty(t, c.Schedule())
	require.Len(t, rec.lastTable(), 1)
	assert.True(t, rec.lastTable()[0].Empty)
}

func TestPredictDelay(t *testing.T) {
	conf := 87.0
	f := &fakeAPI{prediction: model.Prediction{
		DelayCategory:  "Minor",
		DelayMinutes:   3.2,
		ServicePattern: "Peak",
		DayType:        "Weekday",
		Confidence:     &conf,
	}}
	c, rec := newTestController(f)

	p, err := c.PredictDelay(context.Background(), model.PredictInput{})
	require.NoError(t, err)
	assert.Equal(t, "Minor", p.DelayCategory)
	assert.Equal(t, model.PredictInput{DwellTime: 60, Distance: 8.5, LoadFactor: 0.7}, f.predicted[0])
	assert.Contains(t, rec.prediction, "Category: Minor")
	assert.Contains(t, rec.prediction, "Confidence: 87%")
	assert.Equal(t, []string{"success:" + MsgPredicted}, rec.messages())
	assert.Equal(t, []bool{false, true, false}, rec.busyTrail())
	require.NotNil(t, c.Snapshot().Prediction)
}

func TestPredictDelay_Failure(t *testing.T) {
	c, rec := newTestController(&fakeAPI{predictErr: errors.New("model not loaded")})
	_, err := c.PredictDelay(context.Background(), model.PredictInput{DwellTime: 30})
	require.Error(t, err)
	assert.Equal(t, []string{"error:" + MsgPredictFailed}, rec.messages())
	assert.Empty(t, rec.prediction)
}

/*
Cases:
- success writes kmrl_schedule_<date>.csv with the downloaded body
- a non-2xx download toasts the export error and writes nothing
- a transport failure toasts the generic failure
*/
func TestExportSchedule(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dir := t.TempDir()
		c, rec := newTestController(&fakeAPI{csv: "TrainID,Score\nT1,90\n"}, WithConfig(Config{ExportDir: dir}))

		path, err := c.ExportSchedule(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "kmrl_schedule_2025-03-01.csv"), path)
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "TrainID,Score\nT1,90\n", string(b))
		assert.Equal(t, []string{"success:" + MsgExported}, rec.messages())
	})

	t.Run("http error", func(t *testing.T) {
		dir := t.TempDir()
		f := &fakeAPI{downloadErr: &api.HTTPError{Method: "GET", Path: api.PathDownloadSchedule, StatusCode: 404, Message: "No schedule"}}
		c, rec := newTestController(f, WithConfig(Config{ExportDir: dir}))

		path, err := c.ExportSchedule(context.Background())
		require.Error(t, err)
		assert.Empty(t, path)
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
		assert.Equal(t, []string{"error:" + MsgExportRejected}, rec.messages())
	})

	t.Run("transport error", func(t *testing.T) {
		c, rec := newTestController(&fakeAPI{downloadErr: errors.New("dial tcp: refused")}, WithConfig(Config{ExportDir: t.TempDir()}))
		_, err := c.ExportSchedule(context.Background())
		require.Error(t, err)
		assert.Equal(t, []string{"error:" + MsgExportFailed}, rec.messages())
	})
}

func TestRunWhatIf(t *testing.T) {
	f := &fakeAPI{whatIf: json.RawMessage(`{"impact":"low"}`)}
	c, rec := newTestController(f)

	res, err := c.RunWhatIf(context.Background(), "train_failure", " T1, ,T2 ,")
	require.NoError(t, err)
	assert.JSONEq(t, `{"impact":"low"}`, string(res))
	require.Len(t, f.scenarios, 1)
	assert.Equal(t, model.Scenario{Type: "train_failure", AffectedTrains: []string{"T1", "T2"}}, f.scenarios[0])
	assert.Contains(t, rec.whatIf, "What-If Analysis Results")
	assert.Contains(t, rec.whatIf, `"impact": "low"`)
	assert.Equal(t, []string{"success:" + MsgWhatIfDone}, rec.messages())
}

func TestRunWhatIf_Failure(t *testing.T) {
	f := &fakeAPI{whatIfErr: &api.AppError{Path: api.PathWhatIf, Status: "error", Message: "Unknown scenario"}}
	c, rec := newTestController(f)
	_, err := c.RunWhatIf(context.Background(), "meteor", "")
	require.Error(t, err)
	assert.Equal(t, []string{"error:Unknown scenario"}, rec.messages())
}

func TestParseTrainList(t *testing.T) {
	assert.Equal(t, []string{"T1", "T2"}, ParseTrainList("T1, T2"))
	assert.Equal(t, []string{"T1", "T2"}, ParseTrainList(" T1,, T2 , "))
	assert.Equal(t, []string{}, ParseTrainList(""))
}

func TestRefresh(t *testing.T) {
	f := &fakeAPI{status: fleetPatch(5, 5, 5, model.HealthGood), schedule: []model.ScheduleRow{{TrainID: "T3"}}}
	c, rec := newTestController(f)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, "T3", rec.lastTable()[0].TrainID)
	assert.Equal(t, []string{"info:" + MsgRefreshing}, rec.messages())
	assert.Equal(t, 5, c.Status().StandbyTrains)
}

func TestRefreshSchedule(t *testing.T) {
	f := &fakeAPI{scheduleErr: api.ErrNoSchedule}
	c, rec := newTestController(f)
	before := len(rec.tables)

	c.RefreshSchedule(context.Background())
	assert.Len(t, rec.tables, before)

	f.scheduleErr = nil
	f.schedule = []model.ScheduleRow{{TrainID: "T9"}}
	c.RefreshSchedule(context.Background())
	assert.Equal(t, "T9", rec.lastTable()[0].TrainID)
	assert.Equal(t, []string{"info:" + MsgScheduleRefresh, "info:" + MsgScheduleRefresh}, rec.messages())
}

func TestUpdateCharts(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})
	c.UpdateCharts("Distribution")
	assert.Equal(t, 1, rec.metricDraws)
	assert.Equal(t, []string{"info:Distribution chart updated"}, rec.messages())
}

func TestActionCompletedPublished(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	sub := bus.Subscribe()
	c, _ := newTestController(&fakeAPI{generateErr: errors.New("nope")}, WithBus(bus))

	require.Error(t, c.GenerateData(context.Background()))

	ev := (<-sub).(events.ActionCompleted)
	assert.Equal(t, ActionGenerate, ev.Action)
	assert.False(t, ev.Success)
	assert.Equal(t, MsgGenerateFailed, ev.Message)
	assert.EqualError(t, ev.Err, "nope")
}
