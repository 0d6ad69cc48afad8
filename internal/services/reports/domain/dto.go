// Package domain holds report jobs, metric rows and the store and sink contracts
package domain

import (
	"time"

	"storepulse/internal/core/availability"
)

// Status is the lifecycle state of a report job
type Status string

// Job states, Running is the only non terminal one
const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Terminal reports whether s can no longer change
func (s Status) Terminal() bool { return s == StatusComplete || s == StatusFailed }

// Job is a report job as stored and polled
type Job struct {
	ID             string     `json:"report_id" example:"5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77"`
	Status         Status     `json:"status" example:"Complete"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ResultHandle   string     `json:"result_handle,omitempty" example:"reports/report_5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77.csv"`
	Error          string     `json:"error,omitempty"`
	Entities       int        `json:"entities"`
	FailedEntities int        `json:"failed_entities"`
}

// Outcome carries the fields written by the single terminal transition
type Outcome struct {
	CompletedAt    time.Time
	ResultHandle   string
	Error          string
	Entities       int
	FailedEntities int
}

// TriggerResult is returned by the trigger endpoint
type TriggerResult struct {
	ReportID string `json:"report_id" example:"5b0c3a4e-8f7d-4b7e-9a51-4c1f0f1d2a77"`
}

// Observation is one status poll of a store
type Observation struct {
	StoreID string
	At      time.Time
	State   availability.State
}

// StateFromStatus maps stored status text, only "active" is open
func StateFromStatus(s string) availability.State {
	if s == "active" {
		return availability.Open
	}
	return availability.Closed
}

// Window is the business second split of one rolling window
type Window struct {
	Uptime   int64
	Downtime int64
}

// MetricRow is the per store result of one job, in whole business seconds
type MetricRow struct {
	StoreID string
	Hour    Window
	Day     Window
	Week    Window
}

// ReportRow is a MetricRow scaled for output: the hour window in minutes, day and week in hours
type ReportRow struct {
	StoreID          string  `json:"store_id" csv:"store_id" validate:"required"`
	UptimeLastHour   float64 `json:"uptime_last_hour" csv:"uptime_last_hour" validate:"finite,gte=0"`
	UptimeLastDay    float64 `json:"uptime_last_day" csv:"uptime_last_day" validate:"finite,gte=0"`
	UptimeLastWeek   float64 `json:"uptime_last_week" csv:"uptime_last_week" validate:"finite,gte=0"`
	DowntimeLastHour float64 `json:"downtime_last_hour" csv:"downtime_last_hour" validate:"finite,gte=0"`
	DowntimeLastDay  float64 `json:"downtime_last_day" csv:"downtime_last_day" validate:"finite,gte=0"`
	DowntimeLastWeek float64 `json:"downtime_last_week" csv:"downtime_last_week" validate:"finite,gte=0"`
}

// ReportColumns is the CSV header, in order
var ReportColumns = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// Report scales r and rounds every value to two decimals
func (r MetricRow) Report() ReportRow {
	return ReportRow{
		StoreID:          r.StoreID,
		UptimeLastHour:   Round2(float64(r.Hour.Uptime) / 60),
		UptimeLastDay:    Round2(float64(r.Day.Uptime) / 3600),
		UptimeLastWeek:   Round2(float64(r.Week.Uptime) / 3600),
		DowntimeLastHour: Round2(float64(r.Hour.Downtime) / 60),
		DowntimeLastDay:  Round2(float64(r.Day.Downtime) / 3600),
		DowntimeLastWeek: Round2(float64(r.Week.Downtime) / 3600),
	}
}

// ReportStats summarizes a written CSV report
type ReportStats struct {
	TotalStores int                `json:"total_stores" example:"42"`
	Averages    map[string]float64 `json:"averages"`
	Best        StoreUptime        `json:"best_performing_store"`
	Worst       StoreUptime        `json:"worst_performing_store"`
}

// StoreUptime names a store and its weekly uptime in hours
type StoreUptime struct {
	StoreID        string  `json:"store_id" example:"8419537941919820732"`
	UptimeLastWeek float64 `json:"uptime_last_week" example:"131.5"`
}
