package sim

import (
	"sync"

	"github.com/roach88/doas/internal/psychro"
)

// Result is one full pipeline evaluation: all stage results in evaluation
// order plus the final supply-air state.
type Result struct {
	// Stages holds the ERV, cooling, reheat and fan results, in that
	// order. The order never changes.
	Stages []StageResult `json:"stages"`

	// SupplyAir is the state delivered to the space (the reheat outlet;
	// the fan adds no thermal effect under this model).
	SupplyAir AirState `json:"supply_air"`

	// TotalCoilLoadKW is the cooling plus reheat thermal load.
	TotalCoilLoadKW float64 `json:"total_coil_load_kw"`
}

// StageNamed returns the result for one stage, if present.
func (r *Result) StageNamed(s Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}

// Evaluate runs one pass of the fixed ERV -> cooling -> reheat -> fan
// sequence for cfg.
//
// The config is validated first; an invalid config or a psychrometric
// singularity in any stage fails the whole tick with no partial result.
// Every returned CommandPct is in [0,100] for any input combination.
func Evaluate(cfg PipelineConfig) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	outdoor, err := NewAirState(cfg.OutdoorTempC, cfg.OutdoorRHPct)
	if err != nil {
		return nil, &StageError{Stage: StageERV, Err: err}
	}
	// Return air participates in the wheel balance only through its
	// dry-bulb, but it is derived up front so an out-of-envelope return
	// state faults the tick before any stage output exists.
	if _, err := NewAirState(cfg.ReturnTempC, cfg.ReturnRHPct); err != nil {
		return nil, &StageError{Stage: StageERV, Err: err}
	}

	erv, err := ervStage(cfg, outdoor)
	if err != nil {
		return nil, err
	}
	cooling, err := coolingStage(cfg, erv.Outlet)
	if err != nil {
		return nil, err
	}
	reheat, err := reheatStage(cfg, cooling.Outlet)
	if err != nil {
		return nil, err
	}
	fan := fanStage(cfg, reheat.Outlet)

	return &Result{
		Stages:          []StageResult{erv, cooling, reheat, fan},
		SupplyAir:       reheat.Outlet,
		TotalCoilLoadKW: cooling.LoadKW + reheat.LoadKW,
	}, nil
}

// ervStage models sensible-only recovery: the wheel pulls the outdoor
// dry-bulb toward the return dry-bulb by its effectiveness. RH is carried
// forward unchanged from outdoor air - latent recovery is a documented
// approximation, not modeled. The command is the fixed effectiveness as a
// percentage; the wheel does not modulate.
func ervStage(cfg PipelineConfig, outdoor AirState) (StageResult, error) {
	leavingT := cfg.OutdoorTempC - cfg.ERVEffectiveness*(cfg.OutdoorTempC-cfg.ReturnTempC)

	outlet, err := NewAirState(leavingT, outdoor.RelHumidityPct)
	if err != nil {
		return StageResult{}, &StageError{Stage: StageERV, Err: err}
	}
	return StageResult{
		Stage:      StageERV,
		Outlet:     outlet,
		CommandPct: clampPct(cfg.ERVEffectiveness * 100),
	}, nil
}

// coolingStage drives the coil toward the dewpoint target with a
// proportional valve. The outlet form
//
//	leavingT = max(target, inT - valve/gain)
//
// guarantees the coil never overshoots below the target: the valve
// saturates at 0 (no cooling needed) and 100 (full authority), and at
// partial valve the temperature drop is exactly valve/gain.
func coolingStage(cfg PipelineConfig, in AirState) (StageResult, error) {
	valve := clampPct((in.DryBulbC - cfg.DewpointTargetC) * cfg.GainCooling)

	leavingT := in.DryBulbC - valve/cfg.GainCooling
	// Floor at the target only while the coil is active: air entering
	// below the target passes through untouched (valve = 0), it is not
	// warmed up to the target.
	if valve > 0 && leavingT < cfg.DewpointTargetC {
		leavingT = cfg.DewpointTargetC
	}

	outlet, err := NewAirState(leavingT, in.RelHumidityPct)
	if err != nil {
		return StageResult{}, &StageError{Stage: StageCooling, Err: err}
	}
	return StageResult{
		Stage:      StageCooling,
		Outlet:     outlet,
		CommandPct: valve,
		LoadKW:     cfg.MassFlowKgS() * (in.EnthalpyKJKg - outlet.EnthalpyKJKg),
	}, nil
}

// reheatStage drives the dry-bulb up to the supply setpoint. Heating is
// sensible-only, so the humidity ratio is held invariant and the leaving
// RH is re-derived from it through the inverse saturation relation -
// never re-assumed.
func reheatStage(cfg PipelineConfig, in AirState) (StageResult, error) {
	valve := clampPct((cfg.SupplySetpointC - in.DryBulbC) * cfg.GainReheat)

	// valve/gain never exceeds the setpoint error, so the stage cannot
	// overshoot past setpoint.
	saT := in.DryBulbC + valve/cfg.GainReheat

	w := in.HumidityRatioKgKg
	rh, err := psychro.RelHumidityFromRatio(saT, w)
	if err != nil {
		return StageResult{}, &StageError{Stage: StageReheat, Err: err}
	}
	outlet := AirState{
		DryBulbC:          saT,
		RelHumidityPct:    rh,
		EnthalpyKJKg:      psychro.Enthalpy(saT, w),
		HumidityRatioKgKg: w,
	}
	return StageResult{
		Stage:      StageReheat,
		Outlet:     outlet,
		CommandPct: valve,
		LoadKW:     cfg.MassFlowKgS() * (outlet.EnthalpyKJKg - in.EnthalpyKJKg),
	}, nil
}

// fanStage emits the supply fan speed command as the configured airflow's
// fraction of design airflow. The fan adds no thermal effect under this
// model, so the outlet passes through unchanged.
func fanStage(cfg PipelineConfig, in AirState) StageResult {
	return StageResult{
		Stage:      StageFan,
		Outlet:     in,
		CommandPct: clampPct(100 * cfg.AirflowCFM / cfg.DesignAirflowCFM),
	}
}

// Outcome pairs one batch evaluation with its error.
type Outcome struct {
	Config PipelineConfig
	Result *Result
	Err    error
}

// EvaluateAll evaluates independent configs concurrently. Evaluate is
// pure, so the only coordination needed is the WaitGroup; results land in
// input order.
func EvaluateAll(cfgs []PipelineConfig) []Outcome {
	out := make([]Outcome, len(cfgs))
	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(i int, cfg PipelineConfig) {
			defer wg.Done()
			res, err := Evaluate(cfg)
			out[i] = Outcome{Config: cfg, Result: res, Err: err}
		}(i, cfg)
	}
	wg.Wait()
	return out
}
