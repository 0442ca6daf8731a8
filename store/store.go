// Package store persists ground-state search runs and their sample batches
// in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/ising"
)

const (
	tableRuns    = "runs"
	tableSamples = "samples"

	stmtTimeout = 3 * time.Second
)

// A Run is one recorded invocation of a search strategy.
type Run struct {
	ID       string
	Label    string
	Strategy string
	// Exact is true only for completed exhaustive searches. Heuristic runs
	// hold the best found configurations, not verified ground states.
	Exact   bool
	Created time.Time
}

// Store records runs and samples. It is safe for concurrent use.
type Store struct {
	Path string

	db *sql.DB
}

// Open opens the database at dbPath, creating tables as needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &Store{Path: dbPath, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), stmtTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, label TEXT, strategy TEXT, exact INTEGER, created INTEGER) STRICT`, tableRuns)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run_id TEXT, config TEXT, energy REAL, occurrences INTEGER, PRIMARY KEY (run_id, config)) STRICT`, tableSamples)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// AddRun records a new run and returns it with a fresh ID.
func (s *Store) AddRun(ctx context.Context, label, strategy string, exact bool) (Run, error) {
	run := Run{ID: uuid.NewString(), Label: label, Strategy: strategy, Exact: exact, Created: time.Now()}
	sqlStr := fmt.Sprintf(`INSERT INTO %s (id, label, strategy, exact, created) VALUES (?, ?, ?, ?, ?)`, tableRuns)
	exact64 := int64(0)
	if exact {
		exact64 = 1
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, run.ID, run.Label, run.Strategy, exact64, run.Created.UnixMicro()); err != nil {
		return Run{}, errors.Wrap(err, fmt.Sprintf("%#v", run))
	}
	return run, nil
}

// Runs lists all recorded runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	sqlStr := fmt.Sprintf(`SELECT id, label, strategy, exact, created FROM %s ORDER BY created, id`, tableRuns)
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		var exact64, created int64
		if err := rows.Scan(&run.ID, &run.Label, &run.Strategy, &exact64, &created); err != nil {
			return nil, errors.Wrap(err, "")
		}
		run.Exact = exact64 != 0
		run.Created = time.UnixMicro(created)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return runs, nil
}

// AddSamples records the samples of a run.
func (s *Store) AddSamples(ctx context.Context, runID string, set ising.SampleSet) error {
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (run_id, config, energy, occurrences) VALUES (?, ?, ?, ?)`, tableSamples)
	for _, sp := range set.Samples {
		if _, err := s.db.ExecContext(ctx, sqlStr, runID, sp.Config.String(), sp.Energy, int64(sp.Occurrences)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %s", runID, sp.Config))
		}
	}
	return nil
}

// Samples returns the sample batch of a run, lowest energy first.
func (s *Store) Samples(ctx context.Context, runID string) (ising.SampleSet, error) {
	sqlStr := fmt.Sprintf(`SELECT config, energy, occurrences FROM %s WHERE run_id=? ORDER BY energy, config`, tableSamples)
	rows, err := s.db.QueryContext(ctx, sqlStr, runID)
	if err != nil {
		return ising.SampleSet{}, errors.Wrap(err, "")
	}
	defer rows.Close()

	set := ising.SampleSet{Samples: make([]ising.Sample, 0)}
	for rows.Next() {
		var cfgStr string
		var sp ising.Sample
		var occurrences int64
		if err := rows.Scan(&cfgStr, &sp.Energy, &occurrences); err != nil {
			return ising.SampleSet{}, errors.Wrap(err, "")
		}
		sp.Config, err = ising.ParseConfig(cfgStr)
		if err != nil {
			return ising.SampleSet{}, errors.Wrap(err, "")
		}
		sp.Occurrences = int(occurrences)
		set.Samples = append(set.Samples, sp)
	}
	if err := rows.Err(); err != nil {
		return ising.SampleSet{}, errors.Wrap(err, "")
	}
	return set, nil
}

// Best returns the minimum energy sample of a run.
func (s *Store) Best(ctx context.Context, runID string) (ising.Sample, error) {
	sqlStr := fmt.Sprintf(`SELECT config, energy, occurrences FROM %s WHERE run_id=? ORDER BY energy, config LIMIT 1`, tableSamples)
	var cfgStr string
	var sp ising.Sample
	var occurrences int64
	err := s.db.QueryRowContext(ctx, sqlStr, runID).Scan(&cfgStr, &sp.Energy, &occurrences)
	switch {
	case err == sql.ErrNoRows:
		return ising.Sample{}, errors.Wrap(ising.ErrNoSamples, runID)
	case err != nil:
		return ising.Sample{}, errors.Wrap(err, "")
	}
	sp.Config, err = ising.ParseConfig(cfgStr)
	if err != nil {
		return ising.Sample{}, errors.Wrap(err, "")
	}
	sp.Occurrences = int(occurrences)
	return sp, nil
}
