package view

// The dashboard renders to any value implementing some of these interfaces.
// Every surface is optional.

// StatusSurface draws the stat cards and the health badge.
type StatusSurface interface {
	RenderStatus(cards []StatCard, health HealthBadge)
}

// TableSurface draws the schedule table.
type TableSurface interface {
	RenderSchedule(rows []TableRow)
}

// ConnectionSurface draws the realtime link indicator.
type ConnectionSurface interface {
	RenderConnection(c ConnectionBadge)
}

// BusySurface shows or hides the loading overlay.
type BusySurface interface {
	SetBusy(busy bool)
}

// ClockSurface draws the header clock.
type ClockSurface interface {
	RenderClock(label string)
}

// ResultSurface draws the prediction and what-if result panels.
type ResultSurface interface {
	RenderPrediction(text string)
	RenderWhatIf(text string)
}
