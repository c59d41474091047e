package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/doas/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "doas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func makeSnapshot(token string, seq int64, supplyT float64) sim.Snapshot {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	return sim.Snapshot{
		Seq:      seq,
		RunToken: token,
		At:       base.Add(time.Duration(seq) * time.Second),
		Result: sim.Result{
			Stages: []sim.StageResult{
				{Stage: sim.StageERV, CommandPct: 70},
				{Stage: sim.StageCooling, CommandPct: 100, LoadKW: 12.5},
				{Stage: sim.StageReheat, CommandPct: 0, LoadKW: 0},
				{Stage: sim.StageFan, CommandPct: 100},
			},
			SupplyAir: sim.AirState{
				DryBulbC:          supplyT,
				RelHumidityPct:    60,
				EnthalpyKJKg:      45,
				HumidityRatioKgKg: 0.0095,
			},
			TotalCoilLoadKW: 12.5,
		},
	}
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doas.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestStore_AppendAndWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	for seq := int64(1); seq <= 5; seq++ {
		require.NoError(t, st.AppendSnapshot(ctx, makeSnapshot("run-1", seq, 16.0+float64(seq)*0.1)))
	}

	rows, err := st.Window(ctx, "run-1", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Newest three, returned oldest-first.
	assert.Equal(t, int64(3), rows[0].Seq)
	assert.Equal(t, int64(5), rows[2].Seq)
	assert.InDelta(t, 16.5, rows[2].SupplyTempC, 1e-9)
	assert.Equal(t, 100.0, rows[2].CoolingValvePct)
	assert.True(t, rows[2].At.Equal(time.Date(2026, 8, 24, 12, 0, 5, 0, time.UTC)))
}

func TestStore_WindowWholeRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	for seq := int64(1); seq <= 4; seq++ {
		require.NoError(t, st.AppendSnapshot(ctx, makeSnapshot("run-1", seq, 16)))
	}

	rows, err := st.Window(ctx, "run-1", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestStore_DuplicateAppendIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	snap := makeSnapshot("run-1", 1, 16.4)
	require.NoError(t, st.AppendSnapshot(ctx, snap))
	require.NoError(t, st.AppendSnapshot(ctx, snap), "replayed tick must not error")

	rows, err := st.Window(ctx, "run-1", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_BeginRunIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
}

func TestStore_Prune(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	for seq := int64(1); seq <= 10; seq++ {
		require.NoError(t, st.AppendSnapshot(ctx, makeSnapshot("run-1", seq, 16)))
	}
	require.NoError(t, st.Prune(ctx, "run-1", 4))

	rows, err := st.Window(ctx, "run-1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, int64(7), rows[0].Seq, "oldest surviving snapshot")
}

func TestStore_LatestRunToken(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// UUIDv7 tokens sort by creation time.
	gen := sim.UUIDv7Generator{}
	first := gen.Generate()
	second := gen.Generate()
	require.NoError(t, st.BeginRun(ctx, first, "a", time.Now()))
	require.NoError(t, st.BeginRun(ctx, second, "b", time.Now()))

	latest, err := st.LatestRunToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestPublisher_KeepsRollingWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.BeginRun(ctx, "run-1", "design-day", time.Now()))
	pub := &Publisher{Store: st, Keep: 3}
	for seq := int64(1); seq <= 8; seq++ {
		require.NoError(t, pub.Publish(ctx, makeSnapshot("run-1", seq, 16)))
	}

	rows, err := st.Window(ctx, "run-1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(6), rows[0].Seq)
	assert.Equal(t, int64(8), rows[2].Seq)
}

func TestSummarize(t *testing.T) {
	rows := []SnapshotRow{
		{SupplyTempC: 15, CoolingValvePct: 80, CoolingLoadKW: 10, ReheatLoadKW: 0},
		{SupplyTempC: 16, CoolingValvePct: 90, CoolingLoadKW: 12, ReheatLoadKW: 1},
		{SupplyTempC: 17, CoolingValvePct: 100, CoolingLoadKW: 14, ReheatLoadKW: 2},
	}

	s := Summarize(rows)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 16.0, s.SupplyTempC.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.SupplyTempC.StdDev, 1e-12)
	assert.Equal(t, 15.0, s.SupplyTempC.Min)
	assert.Equal(t, 17.0, s.SupplyTempC.Max)
	assert.InDelta(t, 12.0, s.CoolingLoadKW.Mean, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.SupplyTempC.Mean)
}

func TestSummarize_SingleRow(t *testing.T) {
	s := Summarize([]SnapshotRow{{SupplyTempC: 16.4}})
	assert.Equal(t, 16.4, s.SupplyTempC.Mean)
	assert.Equal(t, 0.0, s.SupplyTempC.StdDev, "stddev undefined for one sample, reported as 0")
}
