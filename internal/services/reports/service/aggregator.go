package service

import (
	"context"
	"time"

	"storepulse/internal/core/availability"
	"storepulse/internal/core/bizhours"
	"storepulse/internal/core/tz"
	"storepulse/internal/platform/logger"
	"storepulse/internal/services/reports/domain"
)

// Window lengths, each ends at the reference instant
const (
	HourWindow = time.Hour
	DayWindow  = 24 * time.Hour
	WeekWindow = 7 * 24 * time.Hour
)

// Inputs is every store a job reads
type Inputs interface {
	domain.ObservationStore
	domain.CalendarStore
	domain.TimezoneStore
}

// Aggregator computes one store's row
type Aggregator struct {
	In    Inputs
	Zones *tz.Converter
}

// ComputeRow measures the hour, day and week windows ending at now
// the week of observations is read once, the shorter windows are slices of it
func (a *Aggregator) ComputeRow(ctx context.Context, storeID string, now time.Time) (domain.MetricRow, error) {
	l := logger.C(ctx).With().Str("mod", "reports").Str("entity_id", storeID).Logger()
	row := domain.MetricRow{StoreID: storeID}

	entries, err := a.In.CalendarFor(ctx, storeID)
	if err != nil {
		return row, err
	}
	cal, skipped := bizhours.FromEntries(entries)
	for _, s := range skipped {
		l.Warn().Err(s.Err).
			Int("day_of_week", s.Entry.Day).
			Str("open", s.Entry.Open).
			Str("close", s.Entry.Close).
			Msg("reports: business hours row skipped")
	}

	zoneID, _, err := a.In.TimezoneFor(ctx, storeID)
	if err != nil {
		return row, err
	}
	zone := a.Zones.Resolve(zoneID)
	if zone.Fallback {
		ev := l.Debug()
		if zone.Reason == tz.ReasonUnknown {
			ev = l.Warn()
		}
		ev.Str("timezone", zone.Requested).Str("reason", zone.Reason).Str("using", zone.Name).
			Msg("reports: timezone fallback")
	}

	obs, err := a.In.ObservationsInRange(ctx, storeID, now.Add(-WeekWindow), now)
	if err != nil {
		return row, err
	}
	samples := make([]availability.Sample, len(obs))
	for i, o := range obs {
		samples[i] = availability.Sample{At: zone.ToLocal(o.At), State: o.State}
	}

	measure := func(d time.Duration) domain.Window {
		start := now.Add(-d)
		in := samples[:0:0]
		for _, s := range samples {
			if !s.At.Before(start) {
				in = append(in, s)
			}
		}
		res := availability.Interpolate(cal, zone.ToLocal(start), zone.ToLocal(now), availability.OpenOnly(cal, in))
		return domain.Window{Uptime: res.Uptime, Downtime: res.Downtime}
	}
	row.Hour = measure(HourWindow)
	row.Day = measure(DayWindow)
	row.Week = measure(WeekWindow)
	return row, nil
}
