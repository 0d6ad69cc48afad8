package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"storepulse/internal/modkit/repokit"
	perr "storepulse/internal/platform/errors"
	"storepulse/internal/platform/logger"
	"storepulse/internal/services/reports/repo"
)

// skipSamples caps how many skipped lines are logged per file
const skipSamples = 5

// Summary counts what happened to one file
type Summary struct {
	File    string
	Path    string
	Read    int
	Loaded  int64
	Skipped int
	Suspect int
}

// Importer loads the three source files in one transaction
type Importer struct {
	db   repokit.TxRunner
	opts Options
}

// New returns an Importer writing through db
func New(db repokit.TxRunner, opts Options) *Importer {
	if db == nil {
		panic("ingest.Importer requires a database")
	}
	if opts.Batch <= 0 {
		opts.Batch = 5000
	}
	return &Importer{db: db, opts: opts}
}

// Run ensures the schema then loads every configured file, all or nothing
func (im *Importer) Run(ctx context.Context) ([]Summary, error) {
	l := logger.C(ctx).With().Str("mod", "ingest").Logger()
	start := time.Now()

	if err := repo.EnsureSchema(ctx, im.db); err != nil {
		return nil, err
	}

	sources := []struct {
		f    File
		path string
	}{
		{StatusFile, im.opts.StatusCSV},
		{HoursFile, im.opts.HoursCSV},
		{ZoneFile, im.opts.TimezonesCSV},
	}

	var out []Summary
	err := repokit.WithTx(ctx, im.db, func(q repokit.Queryer) error {
		out = out[:0]
		if im.opts.Truncate {
			if err := repo.Truncate(ctx, q); err != nil {
				return err
			}
			l.Info().Msg("ingest: input tables truncated")
		}
		for _, src := range sources {
			if src.path == "" {
				l.Debug().Str("file", src.f.Name).Msg("ingest: no path, skipped")
				continue
			}
			sum, err := im.load(ctx, q, src.f, src.path)
			if err != nil {
				return err
			}
			l.Info().Str("file", sum.File).Str("path", sum.Path).
				Int("read", sum.Read).Int64("loaded", sum.Loaded).
				Int("skipped", sum.Skipped).Int("suspect", sum.Suspect).
				Msg("ingest: file loaded")
			out = append(out, sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.Info().Int("files", len(out)).Dur("elapsed", time.Since(start)).Msg("ingest: import complete")
	return out, nil
}

func (im *Importer) load(ctx context.Context, q repokit.Queryer, f File, path string) (Summary, error) {
	l := logger.C(ctx).With().Str("mod", "ingest").Str("file", f.Name).Logger()
	sum := Summary{File: f.Name, Path: path}

	rd, err := Open(path, f.Required...)
	if err != nil {
		return sum, err
	}
	defer rd.Close()

	batch := make([][]any, 0, im.opts.Batch)
	flush := func() error {
		n, err := im.write(ctx, q, f, batch)
		if err != nil {
			return err
		}
		sum.Loaded += n
		batch = batch[:0]
		return nil
	}
	skip := func(line int, err error) {
		sum.Skipped++
		if sum.Skipped <= skipSamples {
			l.Debug().Err(err).Int("line", line).Msg("ingest: row skipped")
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		sum.Read++
		if perr.IsCode(err, perr.ErrorCodeValidation) {
			skip(rec.Line, err)
			continue
		}
		if err != nil {
			return sum, perr.Wrapf(err, perr.CodeOf(err), "read %s", path)
		}

		values, suspect, err := f.Parse(rec)
		if err != nil {
			skip(rec.Line, err)
			continue
		}
		if suspect {
			sum.Suspect++
		}
		batch = append(batch, values)
		if len(batch) >= im.opts.Batch {
			if err := flush(); err != nil {
				return sum, err
			}
		}
	}
	if err := flush(); err != nil {
		return sum, err
	}
	if sum.Suspect > 0 {
		l.Warn().Int("suspect", sum.Suspect).Msg("ingest: rows with unreadable clocks loaded, reports will skip them")
	}
	return sum, nil
}

func (im *Importer) write(ctx context.Context, q repokit.Queryer, f File, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if f.Upsert == "" {
		n, err := repokit.CopyRows(ctx, q, f.Table, f.Columns, rows)
		if err != nil {
			return 0, perr.FromPostgresf(err, "copy into %s", f.Table)
		}
		return n, nil
	}

	rows = lastByKey(rows)
	sql, args, err := repokit.InsertValues(f.Table, f.Columns, rows)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnknown, "render upsert")
	}
	tag, err := q.Exec(ctx, sql+" "+f.Upsert, args...)
	if err != nil {
		return 0, perr.FromPostgresf(err, "upsert into %s", f.Table)
	}
	return tag.RowsAffected(), nil
}

// lastByKey keeps the last row for every first column value, in first seen order
// one statement may not update the same key twice
func lastByKey(rows [][]any) [][]any {
	pos := make(map[any]int, len(rows))
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		if i, ok := pos[r[0]]; ok {
			out[i] = r
			continue
		}
		pos[r[0]] = len(out)
		out = append(out, r)
	}
	return out
}
