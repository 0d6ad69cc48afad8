package ingest

import "storepulse/internal/platform/config"

// Options holds the import sources and load settings
type Options struct {
	StatusCSV    string
	HoursCSV     string
	TimezonesCSV string

	// Batch is the number of rows per COPY; <=0 -> 5000
	Batch int
	// Truncate clears the input tables before loading
	Truncate bool
}

// FromConfig reads CORE_IMPORT_* settings, a path of "-" skips that file
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("CORE_IMPORT_")
	path := func(key, def string) string {
		if v := ic.MayString(key, def); v != "-" {
			return v
		}
		return ""
	}
	return Options{
		StatusCSV:    path("STATUS_CSV", "data/store_status.csv"),
		HoursCSV:     path("HOURS_CSV", "data/menu_hours.csv"),
		TimezonesCSV: path("TIMEZONES_CSV", "data/timezones.csv"),
		Batch:        ic.MayAtLeast("BATCH", 5000, 1),
		Truncate:     ic.MayBool("TRUNCATE", false),
	}
}
