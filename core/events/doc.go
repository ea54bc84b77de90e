// Package events defines the dashboard change events published on the event
// bus.
//
// Available event types:
//   - StatusChanged: the status cell was written
//   - ScheduleReplaced: the schedule table was replaced
//   - ConnectionChanged: the realtime link went up or down
//   - RealtimeReceived: an inbound realtime event was dispatched
//   - ActionCompleted: a dashboard action finished
package events
