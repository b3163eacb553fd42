// Package history keeps a queryable record of planning runs in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kilianp07/evroute/core/graph"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// Filter selects plans by vehicle and time range. Zero fields match
// everything.
type Filter struct {
	VehicleID string
	Outcome   string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// Summary aggregates the runs of one vehicle.
type Summary struct {
	VehicleID string
	Plans     int
	Failures  int
	Recharges int
	Energy    float64
}

// SQLiteStore persists plan results and charging stops. It implements
// metrics.MetricsSink and metrics.ChargingStopRecorder so it can be listed
// among the configured sinks.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS plans (
			plan_id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL,
			strategy TEXT NOT NULL,
			outcome TEXT NOT NULL,
			start INTEGER NOT NULL,
			goal INTEGER NOT NULL,
			recharges INTEGER NOT NULL,
			expanded INTEGER NOT NULL,
			energy REAL NOT NULL,
			duration_ms REAL NOT NULL,
			ts INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS plans_vehicle_ts ON plans (vehicle_id, ts);

		CREATE TABLE IF NOT EXISTS charging_stops (
			plan_id TEXT NOT NULL,
			station INTEGER NOT NULL,
			energy REAL NOT NULL,
			battery_before REAL NOT NULL,
			battery_after REAL NOT NULL,
			charging_s REAL NOT NULL,
			ts INTEGER NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// RecordPlan inserts the run. Recording the same plan id twice replaces the
// previous row.
func (s *SQLiteStore) RecordPlan(r coremetrics.PlanResult) error {
	_, err := s.db.Exec(`INSERT INTO plans
		(plan_id, vehicle_id, strategy, outcome, start, goal, recharges, expanded, energy, duration_ms, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			vehicle_id = excluded.vehicle_id,
			strategy = excluded.strategy,
			outcome = excluded.outcome,
			start = excluded.start,
			goal = excluded.goal,
			recharges = excluded.recharges,
			expanded = excluded.expanded,
			energy = excluded.energy,
			duration_ms = excluded.duration_ms,
			ts = excluded.ts`,
		r.PlanID, r.VehicleID, r.Strategy, r.Outcome, int64(r.Start), int64(r.Goal),
		r.Recharges, r.Expanded, r.Energy, float64(r.Duration)/float64(time.Millisecond), r.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// RecordChargingStop inserts one recharge.
func (s *SQLiteStore) RecordChargingStop(ev coremetrics.ChargingStopEvent) error {
	_, err := s.db.Exec(`INSERT INTO charging_stops
		(plan_id, station, energy, battery_before, battery_after, charging_s, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.PlanID, int64(ev.Station), ev.Energy, ev.BatteryBefore, ev.BatteryAfter, ev.ChargingSeconds, ev.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("insert charging stop: %w", err)
	}
	return nil
}

// Plans returns the runs matching f, newest first.
func (s *SQLiteStore) Plans(f Filter) ([]coremetrics.PlanResult, error) {
	where, args := f.clause()
	q := `SELECT plan_id, vehicle_id, strategy, outcome, start, goal, recharges, expanded, energy, duration_ms, ts
		FROM plans` + where + ` ORDER BY ts DESC, plan_id`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []coremetrics.PlanResult
	for rows.Next() {
		var (
			r           coremetrics.PlanResult
			start, goal int64
			durationMS  float64
			ts          int64
		)
		if err := rows.Scan(&r.PlanID, &r.VehicleID, &r.Strategy, &r.Outcome, &start, &goal,
			&r.Recharges, &r.Expanded, &r.Energy, &durationMS, &ts); err != nil {
			return nil, err
		}
		r.Start, r.Goal = graph.VertexID(start), graph.VertexID(goal)
		r.Duration = time.Duration(durationMS * float64(time.Millisecond))
		r.Time = time.Unix(0, ts).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Stops returns the recharges of a plan in insertion order.
func (s *SQLiteStore) Stops(planID string) ([]coremetrics.ChargingStopEvent, error) {
	rows, err := s.db.Query(`SELECT plan_id, station, energy, battery_before, battery_after, charging_s, ts
		FROM charging_stops WHERE plan_id = ? ORDER BY rowid`, planID)
	if err != nil {
		return nil, fmt.Errorf("query charging stops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []coremetrics.ChargingStopEvent
	for rows.Next() {
		var (
			ev      coremetrics.ChargingStopEvent
			station int64
			ts      int64
		)
		if err := rows.Scan(&ev.PlanID, &station, &ev.Energy, &ev.BatteryBefore, &ev.BatteryAfter, &ev.ChargingSeconds, &ts); err != nil {
			return nil, err
		}
		ev.Station = graph.VertexID(station)
		ev.Time = time.Unix(0, ts).UTC()
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Summaries aggregates the runs matching f per vehicle. Limit is ignored.
func (s *SQLiteStore) Summaries(f Filter) ([]Summary, error) {
	where, args := f.clause()
	rows, err := s.db.Query(`SELECT vehicle_id, COUNT(*),
		SUM(CASE WHEN outcome = 'ok' THEN 0 ELSE 1 END),
		SUM(CASE WHEN outcome = 'ok' THEN recharges ELSE 0 END),
		SUM(CASE WHEN outcome = 'ok' THEN energy ELSE 0 END)
		FROM plans`+where+` GROUP BY vehicle_id ORDER BY vehicle_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.VehicleID, &sum.Plans, &sum.Failures, &sum.Recharges, &sum.Energy); err != nil {
			return nil, err
		}
		res = append(res, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (f Filter) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.VehicleID != "" {
		conds = append(conds, "vehicle_id = ?")
		args = append(args, f.VehicleID)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.Until.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
