// Package scenario loads and validates DOAS simulation scenarios.
//
// A scenario is a YAML file pairing one pipeline configuration with
// optional expected stage values for conformance checks. Files are
// validated against an embedded CUE schema before they are decoded, so
// typos and out-of-range values fail with positioned errors instead of
// silently becoming zero values.
package scenario

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/doas/internal/sim"
)

// Scenario is one simulation scenario: a named pipeline config plus
// optional conformance expectations.
type Scenario struct {
	// Name uniquely identifies the scenario. Also the basis of the
	// golden-file key, see GoldenName.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Config holds the pipeline inputs.
	Config ConfigBlock `yaml:"config"`

	// Expect holds the optional conformance expectations checked by
	// `doas test`.
	Expect *ExpectBlock `yaml:"expect,omitempty"`
}

// ConfigBlock mirrors sim.PipelineConfig with the scenario file's
// snake_case keys. Optional tunables left out of the file stay zero and
// pick up the simulator defaults.
type ConfigBlock struct {
	OutdoorTempC     float64 `yaml:"outdoor_temp_c"`
	OutdoorRHPct     float64 `yaml:"outdoor_rh_pct"`
	ReturnTempC      float64 `yaml:"return_temp_c"`
	ReturnRHPct      float64 `yaml:"return_rh_pct"`
	SupplySetpointC  float64 `yaml:"supply_setpoint_c"`
	ERVEffectiveness float64 `yaml:"erv_effectiveness"`
	DewpointTargetC  float64 `yaml:"dewpoint_target_c,omitempty"`
	AirflowCFM       float64 `yaml:"airflow_cfm"`
	DesignAirflowCFM float64 `yaml:"design_airflow_cfm,omitempty"`
	GainCooling      float64 `yaml:"gain_cooling,omitempty"`
	GainReheat       float64 `yaml:"gain_reheat,omitempty"`
}

// ExpectBlock lists expected values for a conformance run. Nil fields are
// not checked; comparisons use Tolerance (DefaultTolerance when unset).
type ExpectBlock struct {
	Tolerance        float64  `yaml:"tolerance,omitempty"`
	LeavingERVTempC  *float64 `yaml:"leaving_erv_temp_c,omitempty"`
	CoolingValvePct  *float64 `yaml:"cooling_valve_pct,omitempty"`
	LeavingCoilTempC *float64 `yaml:"leaving_coil_temp_c,omitempty"`
	ReheatValvePct   *float64 `yaml:"reheat_valve_pct,omitempty"`
	SupplyTempC      *float64 `yaml:"supply_temp_c,omitempty"`
	FanCommandPct    *float64 `yaml:"fan_command_pct,omitempty"`
}

// Load reads, schema-validates and decodes one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes scenario bytes. The filename is used only
// for error positions.
func Parse(filename string, data []byte) (*Scenario, error) {
	if err := ValidateBytes(filename, data); err != nil {
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// ToConfig converts the scenario's config block to a pipeline config.
func (s *Scenario) ToConfig() sim.PipelineConfig {
	return sim.PipelineConfig{
		OutdoorTempC:     s.Config.OutdoorTempC,
		OutdoorRHPct:     s.Config.OutdoorRHPct,
		ReturnTempC:      s.Config.ReturnTempC,
		ReturnRHPct:      s.Config.ReturnRHPct,
		SupplySetpointC:  s.Config.SupplySetpointC,
		ERVEffectiveness: s.Config.ERVEffectiveness,
		DewpointTargetC:  s.Config.DewpointTargetC,
		AirflowCFM:       s.Config.AirflowCFM,
		DesignAirflowCFM: s.Config.DesignAirflowCFM,
		GainCooling:      s.Config.GainCooling,
		GainReheat:       s.Config.GainReheat,
	}
}

// GoldenName derives a stable golden-file key from the scenario name:
// NFC-normalized (names pasted from design documents arrive in mixed
// Unicode forms), lowercased, non-alphanumeric runs collapsed to single
// hyphens.
func (s *Scenario) GoldenName() string {
	name := norm.NFC.String(s.Name)
	name = strings.ToLower(name)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
