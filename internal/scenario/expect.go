package scenario

import (
	"fmt"
	"math"

	"github.com/roach88/doas/internal/sim"
)

// DefaultTolerance is the absolute comparison tolerance for conformance
// checks when the scenario does not specify one.
const DefaultTolerance = 1e-6

// Check compares a pipeline result against the scenario's expect block
// and returns one message per mismatch. An empty slice means the result
// conforms; a scenario without an expect block always conforms.
func (s *Scenario) Check(res *sim.Result) []string {
	if s.Expect == nil {
		return nil
	}
	tol := s.Expect.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var errs []string
	check := func(field string, want *float64, got float64) {
		if want == nil {
			return
		}
		if math.Abs(got-*want) > tol {
			errs = append(errs, fmt.Sprintf("%s: expected %g, got %g (tolerance %g)", field, *want, got, tol))
		}
	}

	erv, _ := res.StageNamed(sim.StageERV)
	cooling, _ := res.StageNamed(sim.StageCooling)
	reheat, _ := res.StageNamed(sim.StageReheat)
	fan, _ := res.StageNamed(sim.StageFan)

	check("leaving_erv_temp_c", s.Expect.LeavingERVTempC, erv.Outlet.DryBulbC)
	check("cooling_valve_pct", s.Expect.CoolingValvePct, cooling.CommandPct)
	check("leaving_coil_temp_c", s.Expect.LeavingCoilTempC, cooling.Outlet.DryBulbC)
	check("reheat_valve_pct", s.Expect.ReheatValvePct, reheat.CommandPct)
	check("supply_temp_c", s.Expect.SupplyTempC, res.SupplyAir.DryBulbC)
	check("fan_command_pct", s.Expect.FanCommandPct, fan.CommandPct)
	return errs
}
