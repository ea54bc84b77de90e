// Package realtime defines the server push events consumed by the dashboard
// and the Channel abstraction that delivers them. Events form a closed set
// dispatched through Handler, so adding an event kind breaks every handler at
// compile time until it is handled.
package realtime
