// Package dashboard implements the dashboard controller. The controller owns
// the single mutable state cell (system status, schedule, connection), keeps
// it in sync with the backend through bootstrap, polling and the realtime
// channel, and renders every write to the attached view surfaces.
package dashboard
