package sim

import (
	"math"

	"github.com/roach88/doas/internal/psychro"
)

// Control-law and unit constants. These are the single source of truth;
// no call site carries its own copy.
const (
	// GainCooling is the proportional gain driving the cooling valve
	// toward the dewpoint target (% command per degree of error).
	GainCooling = 10.0

	// GainReheat is the proportional gain driving the reheat valve
	// toward the supply setpoint.
	GainReheat = 15.0

	// DefaultDewpointTargetC is the cooling coil control target used
	// when the config leaves it unset.
	DefaultDewpointTargetC = 12.0

	// DefaultDesignAirflowCFM scales the fan command when the config
	// leaves the design airflow unset.
	DefaultDesignAirflowCFM = 2500.0

	// cfmToKgS converts CFM to kg/s at standard air density
	// (1.2 kg/m3, 2118 CFM per m3/s). Reproduced exactly for numeric
	// parity with the coil load figures.
	cfmToKgS = 1.2 / 2118.0
)

// Stage identifies one pipeline stage.
type Stage string

// Pipeline stages in evaluation order.
const (
	StageERV     Stage = "erv"
	StageCooling Stage = "cooling"
	StageReheat  Stage = "reheat"
	StageFan     Stage = "fan"
)

// AirState is the moist-air state at one point in the duct. Immutable
// once produced; stages build new values instead of mutating inputs.
type AirState struct {
	DryBulbC          float64 `json:"dry_bulb_c"`
	RelHumidityPct    float64 `json:"rel_humidity_pct"`
	EnthalpyKJKg      float64 `json:"enthalpy_kj_kg"`
	HumidityRatioKgKg float64 `json:"humidity_ratio_kg_kg"`
}

// NewAirState derives a full AirState from a (T, RH) pair. The RH is
// saturated into [0,100] first - sensor noise may push control-surface
// values slightly out of range and that is not an error.
func NewAirState(tempC, rhPct float64) (AirState, error) {
	rh := clampPct(rhPct)
	p, err := psychro.Properties(tempC, rh)
	if err != nil {
		return AirState{}, err
	}
	return AirState{
		DryBulbC:          tempC,
		RelHumidityPct:    rh,
		EnthalpyKJKg:      p.EnthalpyKJKg,
		HumidityRatioKgKg: p.HumidityRatioKgKg,
	}, nil
}

// StageResult is the output of one pipeline stage.
type StageResult struct {
	// Stage names the stage that produced this result.
	Stage Stage `json:"stage"`

	// Outlet is the air state leaving the stage.
	Outlet AirState `json:"outlet"`

	// CommandPct is the stage's actuator command, always in [0,100].
	CommandPct float64 `json:"command_pct"`

	// LoadKW is the thermal load moved by the stage. Zero for stages
	// without thermal-load semantics (ERV wheel, fan).
	LoadKW float64 `json:"load_kw"`
}

// PipelineConfig is the immutable input for one pipeline evaluation.
// Construct it from current control-surface values, validate, evaluate.
//
// Zero values for DewpointTargetC, DesignAirflowCFM, GainCooling and
// GainReheat mean "use the default constant"; every other field is taken
// literally.
type PipelineConfig struct {
	// Outdoor (ambient) air entering the ERV wheel.
	OutdoorTempC float64 `json:"outdoor_temp_c"`
	OutdoorRHPct float64 `json:"outdoor_rh_pct"`

	// Return/exhaust air on the other side of the ERV wheel.
	ReturnTempC float64 `json:"return_temp_c"`
	ReturnRHPct float64 `json:"return_rh_pct"`

	// SupplySetpointC is the reheat stage's dry-bulb target.
	SupplySetpointC float64 `json:"supply_setpoint_c"`

	// ERVEffectiveness is the wheel's sensible effectiveness in [0,1].
	ERVEffectiveness float64 `json:"erv_effectiveness"`

	// DewpointTargetC is the cooling coil control target.
	DewpointTargetC float64 `json:"dewpoint_target_c"`

	// AirflowCFM is the supply airflow, > 0.
	AirflowCFM float64 `json:"airflow_cfm"`

	// DesignAirflowCFM scales the fan-speed command.
	DesignAirflowCFM float64 `json:"design_airflow_cfm"`

	// GainCooling and GainReheat override the proportional gains.
	GainCooling float64 `json:"gain_cooling,omitempty"`
	GainReheat  float64 `json:"gain_reheat,omitempty"`
}

// withDefaults returns a copy with unset tunables replaced by the named
// constants.
func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.DewpointTargetC == 0 {
		c.DewpointTargetC = DefaultDewpointTargetC
	}
	if c.DesignAirflowCFM == 0 {
		c.DesignAirflowCFM = DefaultDesignAirflowCFM
	}
	if c.GainCooling == 0 {
		c.GainCooling = GainCooling
	}
	if c.GainReheat == 0 {
		c.GainReheat = GainReheat
	}
	return c
}

// Validate rejects configs the pipeline cannot evaluate. Called by
// Evaluate before any stage runs; exposed so the CLI can validate without
// evaluating.
func (c PipelineConfig) Validate() error {
	c = c.withDefaults()
	if math.IsNaN(c.ERVEffectiveness) || c.ERVEffectiveness < 0 || c.ERVEffectiveness > 1 {
		return &ConfigError{Field: "erv_effectiveness", Value: c.ERVEffectiveness, Message: "must be in [0,1]"}
	}
	if math.IsNaN(c.AirflowCFM) || c.AirflowCFM <= 0 {
		return &ConfigError{Field: "airflow_cfm", Value: c.AirflowCFM, Message: "must be > 0"}
	}
	if c.DesignAirflowCFM <= 0 || math.IsNaN(c.DesignAirflowCFM) {
		return &ConfigError{Field: "design_airflow_cfm", Value: c.DesignAirflowCFM, Message: "must be > 0"}
	}
	if c.GainCooling <= 0 || c.GainReheat <= 0 {
		return &ConfigError{Field: "gain", Value: 0, Message: "proportional gains must be > 0"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"outdoor_temp_c", c.OutdoorTempC},
		{"outdoor_rh_pct", c.OutdoorRHPct},
		{"return_temp_c", c.ReturnTempC},
		{"return_rh_pct", c.ReturnRHPct},
		{"supply_setpoint_c", c.SupplySetpointC},
		{"dewpoint_target_c", c.DewpointTargetC},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Value: f.value, Message: "must be finite"}
		}
	}
	return nil
}

// MassFlowKgS is the dry-air mass flow implied by the configured airflow.
func (c PipelineConfig) MassFlowKgS() float64 {
	return c.AirflowCFM * cfmToKgS
}

// clampPct saturates a command or humidity percentage into [0,100].
func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
