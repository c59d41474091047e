package store

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MetricSummary is the summary statistics for one trended metric.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates a snapshot window for the history command.
type Summary struct {
	Count           int           `json:"count"`
	SupplyTempC     MetricSummary `json:"supply_temp_c"`
	CoolingValvePct MetricSummary `json:"cooling_valve_pct"`
	CoolingLoadKW   MetricSummary `json:"cooling_load_kw"`
	ReheatLoadKW    MetricSummary `json:"reheat_load_kw"`
}

// Summarize computes summary statistics over a snapshot window.
func Summarize(rows []SnapshotRow) Summary {
	s := Summary{Count: len(rows)}
	if len(rows) == 0 {
		return s
	}

	pick := func(f func(SnapshotRow) float64) []float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f(r)
		}
		return vals
	}

	s.SupplyTempC = summarize(pick(func(r SnapshotRow) float64 { return r.SupplyTempC }))
	s.CoolingValvePct = summarize(pick(func(r SnapshotRow) float64 { return r.CoolingValvePct }))
	s.CoolingLoadKW = summarize(pick(func(r SnapshotRow) float64 { return r.CoolingLoadKW }))
	s.ReheatLoadKW = summarize(pick(func(r SnapshotRow) float64 { return r.ReheatLoadKW }))
	return s
}

func summarize(vals []float64) MetricSummary {
	m := MetricSummary{
		Mean: stat.Mean(vals, nil),
		Min:  floats.Min(vals),
		Max:  floats.Max(vals),
	}
	// Sample standard deviation needs at least two points.
	if len(vals) > 1 {
		m.StdDev = stat.StdDev(vals, nil)
	}
	return m
}
