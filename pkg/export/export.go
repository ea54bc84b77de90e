// Package export writes schedules to files: the backend's CSV download saved
// under the dashboard's file name, or a local CSV/JSON rendering of rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// FileName returns kmrl_schedule_<YYYY-MM-DD>.csv for the UTC date of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("kmrl_schedule_%s.csv", t.UTC().Format("2006-01-02"))
}

// SaveFile copies r into dir/name. The content is staged in a temporary file
// in dir and renamed, so no partial file is left behind on error.
func SaveFile(dir, name string, r io.Reader) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close export: %w", err)
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename export: %w", err)
	}
	return dst, nil
}

// CSVHeader lists the schedule columns in backend order.
var CSVHeader = []string{
	"TrainID", "OperationalStatus", "Score", "RollingStockFitnessStatus",
	"OpenJobCards", "BrandingActive", "PredictedDelayMinutes",
	"TotalMileageKM", "BrakepadWear%", "HVACWear%",
}

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, rows []model.ScheduleRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the schedule to w in CSV format with backend headers.
func WriteCSV(w io.Writer, rows []model.ScheduleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.TrainID,
			r.OperationalStatus,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			strconv.FormatBool(r.RollingStockFitnessStatus),
			strconv.Itoa(r.OpenJobCards),
			strconv.FormatBool(r.BrandingActive),
			strconv.FormatFloat(r.PredictedDelayMinutes, 'f', -1, 64),
			optional(r.TotalMileageKM),
			optional(r.BrakepadWearPct),
			optional(r.HVACWearPct),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
