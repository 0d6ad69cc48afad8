package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"
	"storepulse/internal/services/reports/domain"
)

const (
	filePrefix = "report_"
	fileSuffix = ".csv"
)

// CSV writes one file per job under Dir
type CSV struct {
	Dir string
}

var (
	_ domain.ResultSink   = (*CSV)(nil)
	_ domain.ReportReader = (*CSV)(nil)
	_ domain.Cleaner      = (*CSV)(nil)
)

// NewCSV returns a sink rooted at dir, created on first write
func NewCSV(dir string) *CSV { return &CSV{Dir: dir} }

// Path returns where the report of jobID lives
func (c *CSV) Path(jobID string) string {
	return filepath.Join(c.Dir, filePrefix+jobID+fileSuffix)
}

// Write validates rows and publishes them with a rename so readers never see a partial file
func (c *CSV) Write(ctx context.Context, jobID string, rows []domain.MetricRow) (string, error) {
	report, err := Prepare(rows)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeSink, "create report dir %s", c.Dir)
	}

	tmp, err := os.CreateTemp(c.Dir, ".report-*.tmp")
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeSink, "create temp report")
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := encode(tmp, report); err != nil {
		_ = tmp.Close()
		return "", perr.Wrap(err, perr.ErrorCodeSink, "write report")
	}
	if err := tmp.Close(); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeSink, "close report")
	}

	final := c.Path(jobID)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeSink, "publish report %s", final)
	}
	logger.C(ctx).Debug().Str("path", final).Int("rows", len(report)).Msg("reports: csv written")
	return final, nil
}

func encode(w io.Writer, rows []domain.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ReportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(r domain.ReportRow) []string {
	return []string{
		r.StoreID,
		decimal(r.UptimeLastHour),
		decimal(r.UptimeLastDay),
		decimal(r.UptimeLastWeek),
		decimal(r.DowntimeLastHour),
		decimal(r.DowntimeLastDay),
		decimal(r.DowntimeLastWeek),
	}
}

func decimal(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// Read returns the file behind handle, only report files under Dir are served
func (c *CSV) Read(handle string) ([]byte, error) {
	path, err := c.owned(handle)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, perr.NotFoundf("report file %s not found", filepath.Base(path))
	case err != nil:
		return nil, perr.Wrapf(err, perr.ErrorCodeSink, "read report %s", path)
	}
	return b, nil
}

func (c *CSV) owned(handle string) (string, error) {
	base := filepath.Base(handle)
	if filepath.Clean(filepath.Dir(handle)) != filepath.Clean(c.Dir) ||
		!strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileSuffix) {
		return "", perr.NotFoundf("report file %s not found", base)
	}
	return filepath.Join(c.Dir, base), nil
}

// ReadAndValidate parses a written report and checks header and rows
func ReadAndValidate(path string) ([]domain.ReportRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, perr.NotFoundf("report file %s not found", filepath.Base(path))
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSink, "open report %s", path)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) ([]domain.ReportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(domain.ReportColumns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "read report header")
	}
	if !slices.Equal(header, domain.ReportColumns) {
		return nil, perr.Validationf("unexpected report header %v", header)
	}

	var out []domain.ReportRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "report line %d", line)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "report line %d", line)
		}
		out = append(out, row)
	}
	if err := ValidateRows(out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseRecord(rec []string) (domain.ReportRow, error) {
	var (
		row  = domain.ReportRow{StoreID: rec[0]}
		dest = []*float64{
			&row.UptimeLastHour, &row.UptimeLastDay, &row.UptimeLastWeek,
			&row.DowntimeLastHour, &row.DowntimeLastDay, &row.DowntimeLastWeek,
		}
	)
	for i, p := range dest {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return row, fmt.Errorf("%s: %w", domain.ReportColumns[i+1], err)
		}
		*p = v
	}
	return row, nil
}

// Stats summarizes the report behind handle
func (c *CSV) Stats(handle string) (domain.ReportStats, error) {
	path, err := c.owned(handle)
	if err != nil {
		return domain.ReportStats{}, err
	}
	rows, err := ReadAndValidate(path)
	if err != nil {
		return domain.ReportStats{}, err
	}
	return Summarize(rows)
}

// Summarize averages every column and picks the best and worst store by weekly uptime
func Summarize(rows []domain.ReportRow) (domain.ReportStats, error) {
	if len(rows) == 0 {
		return domain.ReportStats{}, perr.Validationf("report has no rows")
	}
	var sums [6]float64
	best, worst := rows[0], rows[0]
	for _, r := range rows {
		for i, v := range []float64{
			r.UptimeLastHour, r.UptimeLastDay, r.UptimeLastWeek,
			r.DowntimeLastHour, r.DowntimeLastDay, r.DowntimeLastWeek,
		} {
			sums[i] += v
		}
		if r.UptimeLastWeek > best.UptimeLastWeek {
			best = r
		}
		if r.UptimeLastWeek < worst.UptimeLastWeek {
			worst = r
		}
	}

	avg := make(map[string]float64, len(sums))
	for i, s := range sums {
		avg[domain.ReportColumns[i+1]] = domain.Round2(s / float64(len(rows)))
	}
	return domain.ReportStats{
		TotalStores: len(rows),
		Averages:    avg,
		Best:        domain.StoreUptime{StoreID: best.StoreID, UptimeLastWeek: best.UptimeLastWeek},
		Worst:       domain.StoreUptime{StoreID: worst.StoreID, UptimeLastWeek: worst.UptimeLastWeek},
	}, nil
}

// Cleanup removes report files whose mtime is older than olderThan
func (c *CSV) Cleanup(olderThan time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeSink, "list reports")
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, perr.Wrap(errors.Join(errs...), perr.ErrorCodeSink, "remove old reports")
	}
	return removed, nil
}
