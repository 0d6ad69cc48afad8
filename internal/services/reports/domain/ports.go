package domain

import (
	"context"
	"time"

	"storepulse/internal/core/bizhours"
)

// ObservationStore reads raw status polls
type ObservationStore interface {
	// ListEntityIDs returns every store with at least one observation, sorted
	ListEntityIDs(ctx context.Context) ([]string, error)
	// ObservationsInRange is inclusive of both ends and ordered by time
	ObservationsInRange(ctx context.Context, storeID string, start, end time.Time) ([]Observation, error)
	// MaxObservedTimestamp reports ok=false when there are no observations
	MaxObservedTimestamp(ctx context.Context) (time.Time, bool, error)
}

// CalendarStore reads raw weekly hours, an empty slice means none configured
type CalendarStore interface {
	CalendarFor(ctx context.Context, storeID string) ([]bizhours.Entry, error)
}

// TimezoneStore reads a store's zone id, ok=false when none is assigned
type TimezoneStore interface {
	TimezoneFor(ctx context.Context, storeID string) (string, bool, error)
}

// JobStore persists job status
// Transition only moves a Running job, a second transition is a Conflict
type JobStore interface {
	Create(ctx context.Context, job Job) error
	Transition(ctx context.Context, id string, to Status, out Outcome) error
	Get(ctx context.Context, id string) (Job, error)
}

// ResultSink validates and publishes the rows of one job and returns a handle to them
type ResultSink interface {
	Write(ctx context.Context, jobID string, rows []MetricRow) (string, error)
}

// ReportReader is implemented by sinks whose handles can be downloaded
type ReportReader interface {
	Read(handle string) ([]byte, error)
	Stats(handle string) (ReportStats, error)
}

// Cleaner is implemented by sinks that can expire old results
type Cleaner interface {
	Cleanup(olderThan time.Duration) (int, error)
}

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Trigger(ctx context.Context) (string, error)
	Poll(ctx context.Context, id string) (Job, error)
	Download(ctx context.Context, id string) (Job, []byte, error)
	Stats(ctx context.Context, id string) (ReportStats, error)
}
