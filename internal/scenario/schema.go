package scenario

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// schemaSource is the CUE definition every scenario file must satisfy.
// #Scenario is a closed definition: unknown fields are rejected, which
// catches misspelled config keys that YAML decoding would drop silently.
const schemaSource = `
#Scenario: {
	name:         string & !=""
	description?: string

	config: {
		outdoor_temp_c:      number
		outdoor_rh_pct:      number
		return_temp_c:       number
		return_rh_pct:       number
		supply_setpoint_c:   number
		erv_effectiveness:   number & >=0 & <=1
		dewpoint_target_c?:  number
		airflow_cfm:         number & >0
		design_airflow_cfm?: number & >0
		gain_cooling?:       number & >0
		gain_reheat?:        number & >0
	}

	expect?: {
		tolerance?:           number & >0
		leaving_erv_temp_c?:  number
		cooling_valve_pct?:   number & >=0 & <=100
		leaving_coil_temp_c?: number
		reheat_valve_pct?:    number & >=0 & <=100
		supply_temp_c?:       number
		fan_command_pct?:     number & >=0 & <=100
	}
}
`

// SchemaError reports a scenario file that does not satisfy the schema.
type SchemaError struct {
	// File is the scenario filename.
	File string

	// Message carries the full, possibly multi-line CUE error detail
	// with positions.
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// ValidateBytes checks scenario bytes against the embedded CUE schema.
// Returns a SchemaError describing every violation, or nil.
func ValidateBytes(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		// The schema is a compile-time constant; failing to compile it
		// is a programming error, not a user error.
		panic(fmt.Sprintf("scenario: embedded schema invalid: %v", err))
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &SchemaError{File: filename, Message: fmt.Sprintf("not valid YAML: %v", err)}
	}

	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return &SchemaError{File: filename, Message: cueerrors.Details(err, nil)}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return &SchemaError{File: filename, Message: cueerrors.Details(err, nil)}
	}
	return nil
}
