// Package view turns dashboard state into display ready values and declares
// the optional surfaces the dashboard renders to.
package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// NoScheduleMessage is shown in place of rows when the schedule is empty.
const NoScheduleMessage = "No schedule data available"

// TrainDetailsTitle is the title of the train details dialog.
const TrainDetailsTitle = "Train Details"

// ClockLayout formats the header clock.
const ClockLayout = "03:04:05 PM"

// StatCard is one of the headline counters.
type StatCard struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// StatCards renders the headline counters of s.
func StatCards(s model.SystemStatus) []StatCard {
	return []StatCard{
		{Key: "active", Title: "Active Trains", Value: strconv.Itoa(s.ActiveTrains)},
		{Key: "standby", Title: "Standby Trains", Value: strconv.Itoa(s.StandbyTrains)},
		{Key: "maintenance", Title: "In Maintenance", Value: strconv.Itoa(s.MaintenanceTrains)},
		{Key: "avg_delay", Title: "Avg Delay (min)", Value: strconv.FormatFloat(s.AvgDelay, 'f', 1, 64)},
	}
}

// HealthBadge is the system health indicator.
type HealthBadge struct {
	Indicator string `json:"indicator"`
	Text      string `json:"text"`
}

// Health renders h.
func Health(h model.Health) HealthBadge {
	return HealthBadge{Indicator: h.Indicator(), Text: h.Label()}
}

// ConnectionBadge is the realtime link indicator.
type ConnectionBadge struct {
	Connected bool   `json:"connected"`
	Text      string `json:"text"`
	Color     string `json:"color"`
}

// Connection renders the link state.
func Connection(connected bool) ConnectionBadge {
	if connected {
		return ConnectionBadge{Connected: true, Text: "Connected", Color: "#10b981"}
	}
	return ConnectionBadge{Text: "Disconnected", Color: "#ef4444"}
}

// TableRow is one rendered schedule row. A row with Empty set carries only
// Message.
type TableRow struct {
	Empty       bool   `json:"empty,omitempty"`
	Message     string `json:"message,omitempty"`
	TrainID     string `json:"train_id,omitempty"`
	Status      string `json:"status,omitempty"`
	StatusClass string `json:"status_class,omitempty"`
	Score       string `json:"score,omitempty"`
	Fitness     string `json:"fitness,omitempty"`
	JobCards    string `json:"job_cards,omitempty"`
	Branding    string `json:"branding,omitempty"`
	Delay       string `json:"delay,omitempty"`
}

// ScheduleTable renders rows. An empty schedule yields the single
// NoScheduleMessage row.
func ScheduleTable(rows []model.ScheduleRow) []TableRow {
	if len(rows) == 0 {
		return []TableRow{{Empty: true, Message: NoScheduleMessage}}
	}
	out := make([]TableRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, TableRow{
			TrainID:     orDefault(r.TrainID, "N/A"),
			Status:      orDefault(r.OperationalStatus, "Unknown"),
			StatusClass: "status-" + orDefault(r.OperationalStatus, "unknown"),
			Score:       strconv.FormatFloat(r.Score, 'f', 1, 64),
			Fitness:     mark(r.RollingStockFitnessStatus, "✅", "❌"),
			JobCards:    strconv.Itoa(r.OpenJobCards),
			Branding:    mark(r.BrandingActive, "🎯", "—"),
			Delay:       strconv.FormatFloat(r.PredictedDelayMinutes, 'f', 1, 64),
		})
	}
	return out
}

// TrainDetails renders the body of the details dialog for r.
func TrainDetails(r model.ScheduleRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Details\n", r.TrainID)
	fmt.Fprintf(&b, "Status: %s\n", r.OperationalStatus)
	fmt.Fprintf(&b, "Score: %.2f\n", r.Score)
	fmt.Fprintf(&b, "Fitness Status: %s\n", mark(r.RollingStockFitnessStatus, "Valid", "Invalid"))
	fmt.Fprintf(&b, "Open Job Cards: %d\n", r.OpenJobCards)
	fmt.Fprintf(&b, "Total Mileage: %s km\n", optional(r.TotalMileageKM))
	fmt.Fprintf(&b, "Brake Wear: %s%%\n", optional(r.BrakepadWearPct))
	fmt.Fprintf(&b, "HVAC Wear: %s%%\n", optional(r.HVACWearPct))
	fmt.Fprintf(&b, "Predicted Delay: %.1f min", r.PredictedDelayMinutes)
	return b.String()
}

// PredictionPanel renders a delay prediction.
func PredictionPanel(p model.Prediction) string {
	var b strings.Builder
	b.WriteString("Delay Prediction Results\n")
	fmt.Fprintf(&b, "Category: %s\n", p.DelayCategory)
	fmt.Fprintf(&b, "Minutes: %s\n", strconv.FormatFloat(p.DelayMinutes, 'f', -1, 64))
	fmt.Fprintf(&b, "Service Pattern: %s\n", p.ServicePattern)
	fmt.Fprintf(&b, "Day Type: %s", p.DayType)
	if p.Confidence != nil && *p.Confidence != 0 {
		fmt.Fprintf(&b, "\nConfidence: %s%%", strconv.FormatFloat(*p.Confidence, 'f', -1, 64))
	}
	if len(p.Recommendations) > 0 {
		b.WriteString("\nRecommendations:")
		for _, r := range p.Recommendations {
			b.WriteString("\n  - " + r)
		}
	}
	return b.String()
}

// WhatIfPanel pretty prints scenario results with a two space indent.
func WhatIfPanel(results json.RawMessage) string {
	var buf bytes.Buffer
	buf.WriteString("What-If Analysis Results\n")
	if len(results) == 0 {
		buf.WriteString("null")
		return buf.String()
	}
	if err := json.Indent(&buf, results, "", "  "); err != nil {
		buf.Write(results)
	}
	return buf.String()
}

// ClockLabel formats t in loc for the header clock.
func ClockLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClockLayout)
}

// IST returns the Asia/Kolkata location, or a fixed +05:30 zone when the tz
// database is unavailable.
func IST() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}

// LoadLocation resolves name, with "" meaning IST.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Asia/Kolkata" || name == "IST" {
		return IST(), nil
	}
	return time.LoadLocation(name)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func mark(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func optional(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
