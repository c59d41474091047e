package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/doas/internal/sim"
)

// SnapshotRow is one persisted tick, flattened for trend display and
// summary statistics.
type SnapshotRow struct {
	RunToken            string    `json:"run_token"`
	Seq                 int64     `json:"seq"`
	At                  time.Time `json:"at"`
	SupplyTempC         float64   `json:"supply_temp_c"`
	SupplyRHPct         float64   `json:"supply_rh_pct"`
	SupplyEnthalpyKJKg  float64   `json:"supply_enthalpy_kj_kg"`
	SupplyHumidityRatio float64   `json:"supply_humidity_ratio"`
	ERVCommandPct       float64   `json:"erv_command_pct"`
	CoolingValvePct     float64   `json:"cooling_valve_pct"`
	ReheatValvePct      float64   `json:"reheat_valve_pct"`
	FanCommandPct       float64   `json:"fan_command_pct"`
	CoolingLoadKW       float64   `json:"cooling_load_kw"`
	ReheatLoadKW        float64   `json:"reheat_load_kw"`
}

// BeginRun registers a run token before its snapshots are written.
// Idempotent: re-registering an existing token is a no-op.
func (s *Store) BeginRun(ctx context.Context, token, scenarioName string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, scenarioName, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// AppendSnapshot persists one tick. Duplicate (run, seq) pairs are
// silently ignored so a replayed tick cannot double-write.
func (s *Store) AppendSnapshot(ctx context.Context, snap sim.Snapshot) error {
	var cmd [4]float64
	var load [2]float64
	for _, sr := range snap.Result.Stages {
		switch sr.Stage {
		case sim.StageERV:
			cmd[0] = sr.CommandPct
		case sim.StageCooling:
			cmd[1] = sr.CommandPct
			load[0] = sr.LoadKW
		case sim.StageReheat:
			cmd[2] = sr.CommandPct
			load[1] = sr.LoadKW
		case sim.StageFan:
			cmd[3] = sr.CommandPct
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(run_token, seq, at,
		 supply_temp_c, supply_rh_pct, supply_enthalpy_kj_kg, supply_humidity_ratio,
		 erv_command_pct, cooling_valve_pct, reheat_valve_pct, fan_command_pct,
		 cooling_load_kw, reheat_load_kw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_token, seq) DO NOTHING
	`,
		snap.RunToken,
		snap.Seq,
		snap.At.UTC().Format(time.RFC3339Nano),
		snap.Result.SupplyAir.DryBulbC,
		snap.Result.SupplyAir.RelHumidityPct,
		snap.Result.SupplyAir.EnthalpyKJKg,
		snap.Result.SupplyAir.HumidityRatioKgKg,
		cmd[0], cmd[1], cmd[2], cmd[3],
		load[0], load[1],
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// Window returns the most recent n snapshots of a run, oldest first.
// n <= 0 returns the whole run.
func (s *Store) Window(ctx context.Context, runToken string, n int) ([]SnapshotRow, error) {
	query := `
		SELECT run_token, seq, at,
		       supply_temp_c, supply_rh_pct, supply_enthalpy_kj_kg, supply_humidity_ratio,
		       erv_command_pct, cooling_valve_pct, reheat_valve_pct, fan_command_pct,
		       cooling_load_kw, reheat_load_kw
		FROM snapshots
		WHERE run_token = ?
		ORDER BY seq DESC
	`
	args := []any{runToken}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var at string
		if err := rows.Scan(
			&r.RunToken, &r.Seq, &at,
			&r.SupplyTempC, &r.SupplyRHPct, &r.SupplyEnthalpyKJKg, &r.SupplyHumidityRatio,
			&r.ERVCommandPct, &r.CoolingValvePct, &r.ReheatValvePct, &r.FanCommandPct,
			&r.CoolingLoadKW, &r.ReheatLoadKW,
		); err != nil {
			return nil, fmt.Errorf("window: scan: %w", err)
		}
		if r.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("window: bad timestamp %q: %w", at, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	// The query walks newest-first for the LIMIT; flip to oldest-first
	// for display.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots of a run, enforcing the
// rolling trend window server-side.
func (s *Store) Prune(ctx context.Context, runToken string, keep int) error {
	if keep <= 0 {
		keep = sim.DefaultHistoryWindow
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE run_token = ?
		  AND seq NOT IN (
			SELECT seq FROM snapshots
			WHERE run_token = ?
			ORDER BY seq DESC
			LIMIT ?
		  )
	`, runToken, runToken, keep)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	return nil
}

// LatestRunToken returns the token of the most recently started run.
// UUIDv7 tokens sort by creation time, so the lexicographically greatest
// token is the newest run.
func (s *Store) LatestRunToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT token FROM runs ORDER BY token DESC LIMIT 1`).Scan(&token)
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return token, nil
}

// Publisher adapts the store to the driving loop's Publisher interface,
// pruning after every append so a long run never grows past its window.
type Publisher struct {
	Store *Store
	Keep  int
}

// Publish implements sim.Publisher.
func (p *Publisher) Publish(ctx context.Context, snap sim.Snapshot) error {
	if err := p.Store.AppendSnapshot(ctx, snap); err != nil {
		return err
	}
	return p.Store.Prune(ctx, snap.RunToken, p.Keep)
}
