package ingest

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"storepulse/internal/core/bizhours"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/net/http/bind"
	"storepulse/internal/services/reports/repo"
)

// Source column names
const (
	ColStoreID   = "store_id"
	ColStatus    = "status"
	ColTimestamp = "timestamp_utc"
	ColDay       = "dayOfWeek"
	ColStart     = "start_time_local"
	ColEnd       = "end_time_local"
	ColZone      = "timezone_str"
)

// timestampLayouts are tried in order, zone less values are UTC
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 UTC",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseTimestamp reads an observation time as UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, perr.Validationf("timestamp %q not in a known layout", s)
}

var registerOnce sync.Once

func registerClock() {
	registerOnce.Do(func() {
		_ = bind.RegisterValidation("clock", func(fl bind.FieldLevel) bool {
			_, err := bizhours.ParseClock(fl.Field().String())
			return err == nil
		})
		bind.RegisterTagMessage("clock", "{0} must be HH:MM:SS or HH:MM")
	})
}

// StatusRow is one store_status.csv line
type StatusRow struct {
	StoreID   string    `csv:"store_id" validate:"required"`
	Status    string    `csv:"status" validate:"oneof=active inactive"`
	Timestamp time.Time `csv:"timestamp_utc" validate:"required"`
}

// HoursRow is one menu_hours.csv line
// clocks stay text, the calendar loader skips the ones it cannot read
type HoursRow struct {
	StoreID string `csv:"store_id" validate:"required"`
	Day     int    `csv:"dayOfWeek" validate:"gte=0,lte=6"`
	Start   string `csv:"start_time_local" validate:"required"`
	End     string `csv:"end_time_local" validate:"required"`
}

// ZoneRow is one timezones.csv line
type ZoneRow struct {
	StoreID string `csv:"store_id" validate:"required"`
	Zone    string `csv:"timezone_str" validate:"required"`
}

// Suspect reports whether either clock fails to parse; such rows are still loaded
func (h HoursRow) Suspect() bool {
	registerClock()
	return bind.Var(ColStart, h.Start, "clock") != nil || bind.Var(ColEnd, h.End, "clock") != nil
}

// File describes one import source: its table, the columns it needs and how a record becomes a row
type File struct {
	Name     string
	Table    string
	Columns  []string
	Required []string
	// Parse returns the column values; suspect rows are loaded but counted
	Parse func(Record) (values []any, suspect bool, err error)
	// Upsert is an ON CONFLICT clause keyed on the first column, empty loads through COPY
	Upsert string
}

// StatusFile loads store_status.csv
var StatusFile = File{
	Name:     "store_status",
	Table:    repo.TableStatus,
	Columns:  []string{"store_id", "timestamp_utc", "status"},
	Required: []string{ColStoreID, ColStatus, ColTimestamp},
	Parse: func(rec Record) ([]any, bool, error) {
		row, err := parseStatus(rec)
		if err != nil {
			return nil, false, err
		}
		return []any{row.StoreID, row.Timestamp, row.Status}, false, nil
	},
}

// HoursFile loads menu_hours.csv
var HoursFile = File{
	Name:     "menu_hours",
	Table:    repo.TableHours,
	Columns:  []string{"store_id", "day_of_week", "start_time_local", "end_time_local"},
	Required: []string{ColStoreID, ColDay, ColStart, ColEnd},
	Parse: func(rec Record) ([]any, bool, error) {
		row, err := parseHours(rec)
		if err != nil {
			return nil, false, err
		}
		return []any{row.StoreID, int16(row.Day), row.Start, row.End}, row.Suspect(), nil
	},
}

// ZoneFile loads timezones.csv
var ZoneFile = File{
	Name:     "timezones",
	Table:    repo.TableTimezones,
	Columns:  []string{"store_id", "timezone_str"},
	Required: []string{ColStoreID, ColZone},
	Parse: func(rec Record) ([]any, bool, error) {
		row := ZoneRow{StoreID: rec.Get(ColStoreID), Zone: rec.Get(ColZone)}
		if err := bind.Struct(row); err != nil {
			return nil, false, err
		}
		return []any{row.StoreID, row.Zone}, false, nil
	},
	Upsert: "on conflict (store_id) do update set timezone_str = excluded.timezone_str",
}

func parseStatus(rec Record) (StatusRow, error) {
	row := StatusRow{StoreID: rec.Get(ColStoreID), Status: strings.ToLower(rec.Get(ColStatus))}
	ts, err := ParseTimestamp(rec.Get(ColTimestamp))
	if err != nil {
		return row, err
	}
	row.Timestamp = ts
	return row, bind.Struct(row)
}

func parseHours(rec Record) (HoursRow, error) {
	row := HoursRow{StoreID: rec.Get(ColStoreID), Start: rec.Get(ColStart), End: rec.Get(ColEnd)}
	day, err := strconv.Atoi(rec.Get(ColDay))
	if err != nil {
		return row, perr.Validationf("%s %q is not a number", ColDay, rec.Get(ColDay))
	}
	row.Day = day
	return row, bind.Struct(row)
}
