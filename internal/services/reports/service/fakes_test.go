package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"storepulse/internal/core/bizhours"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/services/reports/domain"
	"storepulse/internal/services/reports/repo"
)

type fakeInputs struct {
	obs      map[string][]domain.Observation
	hours    map[string][]bizhours.Entry
	zones    map[string]string
	failing  map[string]bool
	panicky  map[string]bool
	listErr  error
	listBoom bool
	maxUnset bool
}

func newInputs() *fakeInputs {
	return &fakeInputs{
		obs:     map[string][]domain.Observation{},
		hours:   map[string][]bizhours.Entry{},
		zones:   map[string]string{},
		failing: map[string]bool{},
		panicky: map[string]bool{},
	}
}

func (f *fakeInputs) add(storeID string, at time.Time, status string) {
	f.obs[storeID] = append(f.obs[storeID], domain.Observation{StoreID: storeID, At: at, State: domain.StateFromStatus(status)})
}

func (f *fakeInputs) ListEntityIDs(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listBoom {
		panic("listing cursor closed")
	}
	ids := make([]string, 0, len(f.obs))
	for id := range f.obs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeInputs) ObservationsInRange(_ context.Context, storeID string, start, end time.Time) ([]domain.Observation, error) {
	if f.failing[storeID] {
		return nil, errors.New("corrupt rows")
	}
	if f.panicky[storeID] {
		panic("bad observation")
	}
	var out []domain.Observation
	for _, o := range f.obs[storeID] {
		if !o.At.Before(start) && !o.At.After(end) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (f *fakeInputs) MaxObservedTimestamp(context.Context) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, list := range f.obs {
		for _, o := range list {
			if !found || o.At.After(latest) {
				latest, found = o.At, true
			}
		}
	}
	if f.maxUnset {
		return time.Time{}, false, nil
	}
	return latest, found, nil
}

func (f *fakeInputs) CalendarFor(_ context.Context, storeID string) ([]bizhours.Entry, error) {
	return f.hours[storeID], nil
}

func (f *fakeInputs) TimezoneFor(_ context.Context, storeID string) (string, bool, error) {
	z, ok := f.zones[storeID]
	return z, ok, nil
}

type fakeSink struct {
	mu    sync.Mutex
	rows  map[string][]domain.MetricRow
	err   error
	boom  string
	files map[string][]byte
	swept int
}

func newSink() *fakeSink {
	return &fakeSink{rows: map[string][]domain.MetricRow{}, files: map[string][]byte{}}
}

func (s *fakeSink) Write(_ context.Context, jobID string, rows []domain.MetricRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.boom != "" {
		panic(s.boom)
	}
	if len(rows) == 0 {
		return "", perr.Validationf("report has no rows")
	}
	s.rows[jobID] = rows
	handle := "mem/" + jobID
	s.files[handle] = []byte("store_id\n")
	return handle, nil
}

func (s *fakeSink) written(jobID string) []domain.MetricRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[jobID]
}

// readerSink adds download, stats and cleanup support
type readerSink struct{ *fakeSink }

func (s readerSink) Read(handle string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[handle]
	if !ok {
		return nil, perr.NotFoundf("report file %s not found", handle)
	}
	return b, nil
}

func (s readerSink) Stats(string) (domain.ReportStats, error) {
	return domain.ReportStats{TotalStores: 1}, nil
}

func (s readerSink) Cleanup(time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swept++
	return 2, nil
}

// flakyJobs fails the first n terminal transitions with err
type flakyJobs struct {
	*repo.Memory
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (f *flakyJobs) Transition(ctx context.Context, id string, to domain.Status, out domain.Outcome) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.n
	f.mu.Unlock()
	if fail {
		return f.err
	}
	return f.Memory.Transition(ctx, id, to, out)
}
