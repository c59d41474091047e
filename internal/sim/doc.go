// Package sim implements the DOAS component-sequence simulator.
//
// The simulator evaluates a fixed airside pipeline - energy recovery wheel,
// cooling/dehumidification coil, reheat coil, supply fan - for one
// PipelineConfig, producing the outlet air state and a clamped command
// signal for every stage.
//
// ARCHITECTURE:
//
// Pure Core:
// Evaluate is a pure function of its config. No I/O, no globals, no
// cross-tick state. Concurrent evaluation of independent configs is safe
// without locking, which EvaluateAll exploits for what-if batches.
//
// Fixed Stage Order:
// ERV -> cooling -> reheat -> fan, always. Each stage consumes the outlet
// state of its predecessor; a stage never runs before its predecessor has
// produced an outlet. A psychrometric singularity aborts the whole tick -
// there is no partial result with undefined downstream stages.
//
// Driving Loop:
// Runner owns the per-tick cadence, the logical tick clock, the rolling
// TickHistory window, and the optional Publisher (history store). The
// core never touches any of these; they exist so the CLI has a real
// driving loop, not because Evaluate needs them.
//
// INVARIANTS:
//   - Every StageResult.CommandPct is in [0,100] for any input.
//   - Relative humidity is saturated into [0,100] before it reaches the
//     property engine.
//   - The cooling stage never overshoots below its dewpoint target; the
//     reheat stage never overshoots past the supply setpoint.
//   - Reheat holds humidity ratio invariant and re-derives RH from it.
package sim
