package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/core/view"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

func fleetPatch(active, standby, maintenance int, health model.Health) model.StatusPatch {
	return model.StatusPatch{
		ActiveTrains:      ptr(active),
		StandbyTrains:     ptr(standby),
		MaintenanceTrains: ptr(maintenance),
		SystemHealth:      ptr(health),
	}
}

func TestAddTargetRendersCurrentState(t *testing.T) {
	_, rec := newTestController(&fakeAPI{})

	assert.Equal(t, []bool{false}, rec.connection)
	assert.Equal(t, []bool{false}, rec.busyTrail())
	require.Len(t, rec.lastTable(), 1)
	assert.True(t, rec.lastTable()[0].Empty)
	assert.Equal(t, view.NoScheduleMessage, rec.lastTable()[0].Message)
	assert.Equal(t, "08:30:00 AM", rec.clock)
}

/*
Cases:
- status and schedule are both rendered
- the distribution chart receives [active, standby, maintenance]
- busy is switched on then off
*/
func TestBootstrap(t *testing.T) {
	f := &fakeAPI{
		status:   fleetPatch(10, 5, 3, model.HealthWarning),
		schedule: []model.ScheduleRow{{TrainID: "T1", OperationalStatus: "active", Score: 87.5}},
	}
	c, rec := newTestController(f)

	require.NoError(t, c.Bootstrap(context.Background()))

	assert.Equal(t, []bool{false, true, false}, rec.busyTrail())
	assert.Equal(t, "10", rec.cards[0].Value)
	assert.Equal(t, "warning", rec.health.Indicator)
	require.Len(t, rec.dist, 1)
	assert.Equal(t, [3]float64{10, 5, 3}, rec.dist[0].Values)
	assert.Equal(t, 1, rec.metricDraws)
	require.Len(t, rec.lastTable(), 1)
	assert.Equal(t, "T1", rec.lastTable()[0].TrainID)
	assert.Empty(t, rec.messages())
}

func TestBootstrap_FailureClearsBusy(t *testing.T) {
	f := &fakeAPI{statusErr: errors.New("connection refused")}
	c, rec := newTestController(f)

	err := c.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Equal(t, []bool{false, true, false}, rec.busyTrail())
	assert.False(t, c.Busy())
	assert.Equal(t, []string{"error:" + MsgLoadFailed}, rec.messages())
}

func TestBootstrap_StatusFailureStillLoadsSchedule(t *testing.T) {
	f := &fakeAPI{statusErr: errors.New("connection refused"), schedule: []model.ScheduleRow{{TrainID: "T1"}}}
	c, rec := newTestController(f)

	err := c.Bootstrap(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "load status")
	require.Len(t, c.Schedule(), 1)
	require.Len(t, rec.lastTable(), 1)
	assert.Equal(t, "T1", rec.lastTable()[0].TrainID)
	assert.Equal(t, []string{"error:" + MsgLoadFailed}, rec.messages())
	assert.False(t, c.Busy())
}

func TestBootstrap_BothFailuresToastOnce(t *testing.T) {
	statusErr, scheduleErr := errors.New("status down"), errors.New("schedule down")
	c, rec := newTestController(&fakeAPI{statusErr: statusErr, scheduleErr: scheduleErr})

	err := c.Bootstrap(context.Background())
	assert.ErrorIs(t, err, statusErr)
	assert.ErrorIs(t, err, scheduleErr)
	assert.Equal(t, []string{"error:" + MsgLoadFailed}, rec.messages())
}

func TestBootstrap_ScheduleFailure(t *testing.T) {
	f := &fakeAPI{status: fleetPatch(1, 1, 1, model.HealthGood), scheduleErr: errors.New("timeout")}
	c, rec := newTestController(f)

	require.Error(t, c.Bootstrap(context.Background()))
	assert.Equal(t, 1, c.Status().ActiveTrains)
	assert.Equal(t, []string{"error:" + MsgLoadFailed}, rec.messages())
	assert.False(t, c.Busy())
}

func TestBootstrap_NoScheduleYet(t *testing.T) {
	f := &fakeAPI{status: fleetPatch(1, 0, 0, model.HealthGood), scheduleErr: api.ErrNoSchedule}
	c, rec := newTestController(f)

	require.NoError(t, c.Bootstrap(context.Background()))
	assert.True(t, rec.lastTable()[0].Empty)
	assert.Empty(t, rec.messages())
}

func TestUnknownHealthRendersCritical(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})
	h := model.ParseHealth("Degraded")
	c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: &model.StatusPatch{SystemHealth: &h}})
	assert.Equal(t, "danger", rec.health.Indicator)
}

func TestConnectionStateMachine(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})

	c.OnConnect(realtime.Connected{})
	assert.True(t, c.Connected())
	c.OnDisconnect(realtime.Disconnected{Reason: "transport close"})
	assert.False(t, c.Connected())

	assert.Equal(t, []bool{false, true, false}, rec.connection)
	assert.Equal(t, []string{"success:" + MsgConnected, "warning:" + MsgDisconnected}, rec.messages())
}

func TestScheduleUpdated(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})

	c.OnScheduleUpdated(realtime.ScheduleUpdated{
		Schedule: []model.ScheduleRow{{TrainID: "T1"}, {TrainID: "T2"}},
		Status:   &model.StatusPatch{ActiveTrains: ptr(2)},
	})
	assert.Len(t, rec.lastTable(), 2)
	assert.Equal(t, 2, c.Status().ActiveTrains)

	c.OnScheduleUpdated(realtime.ScheduleUpdated{Schedule: []model.ScheduleRow{}})
	require.Len(t, rec.lastTable(), 1)
	assert.True(t, rec.lastTable()[0].Empty)

	assert.Equal(t, []string{"success:" + MsgScheduleUpdated, "success:" + MsgScheduleUpdated}, rec.messages())
}

func TestScheduleUpdated_AbsentScheduleKeepsTable(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})
	c.OnScheduleUpdated(realtime.ScheduleUpdated{Schedule: []model.ScheduleRow{{TrainID: "T1"}}})
	n := len(rec.tables)

	c.OnScheduleUpdated(realtime.ScheduleUpdated{Status: &model.StatusPatch{StandbyTrains: ptr(4)}})
	assert.Len(t, rec.tables, n)
	assert.Equal(t, "T1", rec.lastTable()[0].TrainID)
	assert.Equal(t, 4, c.Status().StandbyTrains)
}

func TestLiveUpdateMergesAndPushesOnce(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})

	c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: ptr(fleetPatch(10, 5, 3, model.HealthGood))})
	c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: &model.StatusPatch{AvgDelay: ptr(2.5)}})

	st := c.Status()
	assert.Equal(t, 10, st.ActiveTrains)
	assert.Equal(t, 2.5, st.AvgDelay)
	assert.Equal(t, 2, rec.metricDraws)
	assert.Len(t, rec.lastPoints, 2)

	c.OnLiveUpdate(realtime.LiveUpdate{})
	assert.Equal(t, 3, rec.metricDraws)
}

func TestLastWriteWins(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: &model.StatusPatch{ActiveTrains: ptr(n)}})
		}(i)
	}
	wg.Wait()

	final := c.Status()
	assert.Equal(t, view.StatCards(final), rec.cards)
	rec.mu.Lock()
	last := rec.dist[len(rec.dist)-1]
	rec.mu.Unlock()
	assert.Equal(t, final.Distribution(), last.Values)
}

func TestStatusMessageIsDiagnosticOnly(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})
	c.OnStatus(realtime.StatusMessage{Raw: []byte(`{"msg":"hi"}`)})
	assert.Empty(t, rec.messages())
	assert.Equal(t, model.SystemStatus{}, c.Status())
}

func TestShowTrainDetails(t *testing.T) {
	c, rec := newTestController(&fakeAPI{})
	row := model.ScheduleRow{TrainID: "T7", OperationalStatus: "standby", Score: 61.25}
	c.OnScheduleUpdated(realtime.ScheduleUpdated{Schedule: []model.ScheduleRow{row}})

	require.NoError(t, c.ShowTrainDetails("T7"))
	assert.Equal(t, []string{DetailsModalID}, c.Modals().Visible())
	assert.Equal(t, []string{DetailsModalID + ":" + view.TrainDetails(row)}, rec.modals)

	err := c.ShowTrainDetails("T99")
	assert.ErrorIs(t, err, ErrTrainNotFound)
	assert.Contains(t, rec.messages(), "error:"+MsgTrainNotFound)
}

func TestClockTick(t *testing.T) {
	c, rec := newTestController(&fakeAPI{}, WithLocation(view.IST()))
	c.tick()
	assert.Equal(t, "02:00:00 PM", rec.clock)
	assert.Equal(t, "02:00:00 PM", c.Snapshot().Clock)
}

func TestSnapshot(t *testing.T) {
	c, _ := newTestController(&fakeAPI{})
	c.OnConnect(realtime.Connected{})
	c.OnScheduleUpdated(realtime.ScheduleUpdated{
		Schedule: []model.ScheduleRow{{TrainID: "T1"}},
		Status:   ptr(fleetPatch(10, 5, 3, model.HealthWarning)),
	})

	st := c.Snapshot()
	assert.True(t, st.Connection.Connected)
	assert.Equal(t, "Attention Required", st.Health.Text)
	assert.Len(t, st.Schedule, 1)
	assert.Equal(t, [3]float64{10, 5, 3}, st.Distribution.Values)
	assert.Len(t, st.Points, 1)
	assert.Len(t, st.Notifications, 2)
	assert.False(t, st.Busy)
}

func TestChartsSkippedWithoutSurface(t *testing.T) {
	c := New(&fakeAPI{}, WithClock(func() time.Time { return testNow }))
	c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: ptr(fleetPatch(10, 5, 3, model.HealthGood))})

	assert.Equal(t, 10, c.Status().ActiveTrains)
	assert.Empty(t, c.Charts().Points())
	assert.Equal(t, [3]float64{}, c.Charts().Distribution().Values)
}

func TestEventsPublished(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	sub := bus.Subscribe()
	c, _ := newTestController(&fakeAPI{}, WithBus(bus))

	c.OnConnect(realtime.Connected{})
	c.OnLiveUpdate(realtime.LiveUpdate{SystemStatus: &model.StatusPatch{ActiveTrains: ptr(3)}})

	ev := <-sub
	conn, ok := ev.(events.ConnectionChanged)
	require.True(t, ok)
	assert.True(t, conn.Connected)

	ev = <-sub
	sc, ok := ev.(events.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, 3, sc.Status.ActiveTrains)
	assert.Equal(t, events.SourceRealtime, sc.Source)
}

func TestRun(t *testing.T) {
	f := &fakeAPI{status: fleetPatch(4, 2, 1, model.HealthGood), scheduleErr: api.ErrNoSchedule}
	ch := realtime.ChannelFunc(func(ctx context.Context, out chan<- realtime.Event) error {
		realtime.Emit(ctx, out, realtime.Connected{})
		realtime.Emit(ctx, out, realtime.LiveUpdate{SystemStatus: &model.StatusPatch{AvgDelay: ptr(1.5)}})
		<-ctx.Done()
		return ctx.Err()
	})
	c, _ := newTestController(f, WithChannel(ch))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return c.Connected() && c.Status().AvgDelay == 1.5 && c.Status().ActiveTrains == 4
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ChannelError(t *testing.T) {
	boom := errors.New("broker unreachable")
	ch := realtime.ChannelFunc(func(context.Context, chan<- realtime.Event) error { return boom })
	c, _ := newTestController(&fakeAPI{scheduleErr: api.ErrNoSchedule}, WithChannel(ch))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Run(ctx), boom)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.statusInterval())
	assert.Equal(t, 30*time.Second, cfg.chartInterval())
	assert.Equal(t, time.Second, cfg.clockInterval())
	assert.Equal(t, 25, cfg.NumTrains)
	assert.True(t, cfg.includeDelays())
	assert.Equal(t, 13, cfg.ServiceQuota)
	assert.Equal(t, 8, cfg.MaxMaintenance)

	cfg.ChartIntervalSeconds = -1
	assert.Error(t, cfg.Validate())
}

func TestUnknownTimezoneFallsBackToIST(t *testing.T) {
	c := New(&fakeAPI{}, WithConfig(Config{Timezone: "Mars/Olympus"}))
	_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, c.loc).Zone()
	assert.Equal(t, 5*3600+30*60, off)
}

func TestExportScheduleWritesIntoExportDir(t *testing.T) {
	dir := t.TempDir()
	c, _ := newTestController(&fakeAPI{csv: "TrainID\n"}, WithConfig(Config{ExportDir: dir}))
	path, err := c.ExportSchedule(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, filepath.Base(path)))
	assert.NoError(t, err)
}
