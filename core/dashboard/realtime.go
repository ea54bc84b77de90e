package dashboard

import (
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/realtime"
)

// Notification texts of realtime events.
const (
	MsgConnected       = "Connected to KMRL server"
	MsgDisconnected    = "Disconnected from server"
	MsgScheduleUpdated = "Schedule updated successfully"
)

var _ realtime.Handler = (*Controller)(nil)

// OnConnect marks the link up.
func (c *Controller) OnConnect(realtime.Connected) {
	c.setConnected(true)
	c.log.Infof("dashboard: realtime connected")
	c.notes.Success(MsgConnected)
	c.publish(events.ConnectionChanged{Connected: true, Time: c.now()})
}

// OnDisconnect marks the link down.
func (c *Controller) OnDisconnect(e realtime.Disconnected) {
	c.setConnected(false)
	c.log.Warnf("dashboard: realtime disconnected: %s", e.Reason)
	c.notes.Warning(MsgDisconnected)
	c.publish(events.ConnectionChanged{Connected: false, Reason: e.Reason, Time: c.now()})
}

// OnScheduleUpdated replaces the schedule and merges the status carried by
// the event. An absent schedule leaves the table untouched; an empty one
// renders the empty row.
func (c *Controller) OnScheduleUpdated(e realtime.ScheduleUpdated) {
	if e.Schedule != nil {
		c.replaceSchedule(e.Schedule, events.SourceRealtime)
	}
	if e.Status != nil {
		c.applyStatus(*e.Status, events.SourceRealtime)
	}
	c.notes.Success(MsgScheduleUpdated)
}

// OnLiveUpdate merges the status and pushes one chart sample.
func (c *Controller) OnLiveUpdate(e realtime.LiveUpdate) {
	if e.SystemStatus != nil {
		c.applyStatus(*e.SystemStatus, events.SourceRealtime)
		return
	}
	c.redrawCharts()
}

// OnStatus is diagnostic only.
func (c *Controller) OnStatus(e realtime.StatusMessage) {
	c.log.Debugw("dashboard: status message", map[string]any{"raw": string(e.Raw)})
}

// handle dispatches one inbound event.
func (c *Controller) handle(ev realtime.Event) {
	c.publish(events.RealtimeReceived{Name: ev.Name(), Time: c.now()})
	ev.Dispatch(c)
}
