// Package recorder keeps a sqlite log of every tick a run produced, so a
// run can be diffed against another offline.
package recorder

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Frame is one recorded bus frame.
type Frame struct {
	Bus     int
	Address uint32
	Payload []byte
}

// Tick is the recorded outcome of one control tick.
type Tick struct {
	Tick         uint64
	CruiseSpeed  float64
	Steer        float64
	Accel        float64
	Gas          float64
	Curvature    float64
	SteerRequest bool
	Frames       []Frame
}

type Recorder struct {
	db    *sql.DB
	runID uuid.UUID
}

// Open creates or opens the database at path and starts a new run.
func Open(ctx context.Context, path, family, scenario string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open recorder %s", path)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create recorder schema")
	}

	r := &Recorder{db: db, runID: uuid.New()}
	_, err = db.ExecContext(ctx,
		"INSERT INTO runs (run_id, family, scenario, started_at) VALUES (?, ?, ?, ?)",
		r.runID.String(), family, scenario, time.Now().UTC())
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "insert run")
	}
	return r, nil
}

func (r *Recorder) RunID() uuid.UUID {
	return r.runID
}

// Record writes one tick and its frames atomically.
func (r *Recorder) Record(ctx context.Context, t Tick) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tick")
	}
	defer tx.Rollback()

	id := r.runID.String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ticks (run_id, tick, cruise_speed, steer, accel, gas, curvature, steer_request)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, int64(t.Tick), t.CruiseSpeed, t.Steer, t.Accel, t.Gas, t.Curvature, t.SteerRequest)
	if err != nil {
		return errors.Wrapf(err, "insert tick %d", t.Tick)
	}

	for seq, f := range t.Frames {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO frames (run_id, tick, seq, bus, address, payload) VALUES (?, ?, ?, ?, ?, ?)",
			id, int64(t.Tick), seq, f.Bus, int64(f.Address), f.Payload)
		if err != nil {
			return errors.Wrapf(err, "insert frame %d of tick %d", seq, t.Tick)
		}
	}
	return errors.Wrap(tx.Commit(), "commit tick")
}

// Ticks reads back the ticks of run in order, frames included.
func (r *Recorder) Ticks(ctx context.Context, run uuid.UUID) ([]Tick, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tick, cruise_speed, steer, accel, gas, curvature, steer_request
		FROM ticks WHERE run_id = ? ORDER BY tick`, run.String())
	if err != nil {
		return nil, errors.Wrap(err, "query ticks")
	}
	defer rows.Close()

	var out []Tick
	index := map[uint64]int{}
	for rows.Next() {
		var t Tick
		var tick int64
		if err := rows.Scan(&tick, &t.CruiseSpeed, &t.Steer, &t.Accel, &t.Gas, &t.Curvature, &t.SteerRequest); err != nil {
			return nil, errors.Wrap(err, "scan tick")
		}
		t.Tick = uint64(tick)
		index[t.Tick] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// release the only connection before the second query
	rows.Close()

	frames, err := r.db.QueryContext(ctx, `
		SELECT tick, bus, address, payload
		FROM frames WHERE run_id = ? ORDER BY tick, seq`, run.String())
	if err != nil {
		return nil, errors.Wrap(err, "query frames")
	}
	defer frames.Close()

	for frames.Next() {
		var tick, addr int64
		var f Frame
		if err := frames.Scan(&tick, &f.Bus, &addr, &f.Payload); err != nil {
			return nil, errors.Wrap(err, "scan frame")
		}
		f.Address = uint32(addr)
		if i, ok := index[uint64(tick)]; ok {
			out[i].Frames = append(out[i].Frames, f)
		}
	}
	return out, frames.Err()
}

// Runs lists recorded run ids, oldest first.
func (r *Recorder) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT run_id FROM runs ORDER BY started_at, run_id")
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "run id %q", s)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
