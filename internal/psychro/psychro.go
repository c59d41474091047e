// Package psychro implements the psychrometric property engine.
//
// The engine maps a (dry-bulb temperature, relative humidity) pair to
// enthalpy and humidity ratio using a fixed Magnus-type approximation of
// the saturation vapor pressure curve. Every downstream pipeline stage
// computes moist-air state through this package so that all callers agree
// on the same constants.
//
// DETERMINISM:
// All functions are pure. The same inputs produce bit-identical outputs
// under IEEE-754 semantics. There is no rounding here - formatting for
// display is the caller's concern.
//
// UNITS:
// Temperatures are degrees Celsius, pressures hPa, humidity ratio kg water
// vapor per kg dry air, enthalpy kJ per kg dry air. Callers working in
// other units convert at their own boundary.
package psychro

import "math"

// Fixed psychrometric constants. These are shared by every call site;
// changing any of them changes the numbers the whole pipeline produces.
const (
	// PAtmHPa is the fixed total pressure. No barometric correction is
	// applied anywhere in this module.
	PAtmHPa = 1013.25

	// Magnus saturation vapor pressure coefficients:
	// Es = 6.112 * exp(17.67*T / (T + 243.5)) hPa.
	magnusEs0 = 6.112
	magnusA   = 17.67
	magnusB   = 243.5

	// Moist-air enthalpy coefficients:
	// h = 1.006*T + W*(2501 + 1.86*T) kJ/kg dry air.
	cpAir    = 1.006
	hVapor0C = 2501.0
	cpVapor  = 1.86

	// epsilon is the molecular weight ratio of water vapor to dry air.
	epsilon = 0.622
)

// Props is the derived moist-air state for one (T, RH) input pair.
type Props struct {
	// EnthalpyKJKg is the specific enthalpy in kJ per kg dry air.
	EnthalpyKJKg float64 `json:"enthalpy_kj_kg"`

	// HumidityRatioKgKg is kg of water vapor per kg of dry air.
	// Always >= 0 for inputs the engine accepts.
	HumidityRatioKgKg float64 `json:"humidity_ratio_kg_kg"`
}

// SaturationPressureHPa returns the Magnus saturation vapor pressure at
// tempC.
//
// The relation has a removable singularity at T = -243.5 (the exponent
// divides by T + 243.5). That point is far outside any physical envelope
// but is still guarded explicitly so it surfaces as a typed error instead
// of an Inf propagating through the pipeline.
func SaturationPressureHPa(tempC float64) (float64, error) {
	if tempC+magnusB == 0 {
		return 0, &SingularityError{
			Code:    ErrCodeTempSingularity,
			Message: "saturation pressure undefined at T = -243.5 C",
			TempC:   tempC,
		}
	}
	return magnusEs0 * math.Exp(magnusA*tempC/(tempC+magnusB)), nil
}

// Properties computes enthalpy and humidity ratio for a dry-bulb
// temperature (C) and relative humidity (percent).
//
// rhPct must already be clamped to [0,100] by the caller; out-of-range
// values are rejected with a RangeError rather than silently saturated,
// so a missing caller-side clamp shows up immediately.
//
// Fails with SingularityError when the vapor pressure reaches the fixed
// total pressure (humidity ratio denominator would be non-positive) or at
// the Magnus singularity. Never returns NaN or Inf.
func Properties(tempC, rhPct float64) (Props, error) {
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) {
		return Props{}, &RangeError{Field: "tempC", Value: tempC, Message: "must be finite"}
	}
	if math.IsNaN(rhPct) || rhPct < 0 || rhPct > 100 {
		return Props{}, &RangeError{Field: "rhPct", Value: rhPct, Min: 0, Max: 100, Message: "must be in [0,100]"}
	}

	es, err := SaturationPressureHPa(tempC)
	if err != nil {
		return Props{}, err
	}

	pw := (rhPct / 100) * es
	if pw >= PAtmHPa {
		return Props{}, &SingularityError{
			Code:    ErrCodeVaporPressure,
			Message: "vapor pressure at or above total pressure",
			TempC:   tempC,
			RHPct:   rhPct,
		}
	}

	w := epsilon * pw / (PAtmHPa - pw)
	h := cpAir*tempC + w*(hVapor0C+cpVapor*tempC)
	return Props{EnthalpyKJKg: h, HumidityRatioKgKg: w}, nil
}

// RelHumidityFromRatio recovers relative humidity (percent) from a
// dry-bulb temperature and an invariant humidity ratio.
//
// This is the inverse used by sensible-only processes: a heating stage
// holds W constant, so the leaving RH must be re-derived from W rather
// than assumed. The result is clamped to [0,100]; clamping here is
// legitimate because a W slightly above saturation at tempC is a modeling
// artifact, not a caller error.
func RelHumidityFromRatio(tempC, humidityRatio float64) (float64, error) {
	if humidityRatio < 0 {
		return 0, &RangeError{Field: "humidityRatio", Value: humidityRatio, Message: "must be >= 0"}
	}
	es, err := SaturationPressureHPa(tempC)
	if err != nil {
		return 0, err
	}
	pw := humidityRatio * PAtmHPa / (epsilon + humidityRatio)
	rh := 100 * pw / es
	if rh > 100 {
		rh = 100
	}
	if rh < 0 {
		rh = 0
	}
	return rh, nil
}

// DewpointC returns the dewpoint temperature for a humidity ratio: the
// temperature at which air with that W saturates at the fixed total
// pressure. Inverse Magnus relation.
//
// Fails for W = 0 (dry air has no dewpoint under this model).
func DewpointC(humidityRatio float64) (float64, error) {
	if humidityRatio <= 0 {
		return 0, &RangeError{Field: "humidityRatio", Value: humidityRatio, Message: "must be > 0"}
	}
	pw := humidityRatio * PAtmHPa / (epsilon + humidityRatio)
	ln := math.Log(pw / magnusEs0)
	return magnusB * ln / (magnusA - ln), nil
}

// Enthalpy computes moist-air enthalpy directly from dry-bulb temperature
// and humidity ratio. Used by stages that hold W invariant and therefore
// bypass the RH-based path in Properties.
func Enthalpy(tempC, humidityRatio float64) float64 {
	return cpAir*tempC + humidityRatio*(hVapor0C+cpVapor*tempC)
}
