// Package atmosphere computes International Standard Atmosphere properties
// for a geometric altitude.
package atmosphere

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAltitude is returned for negative or non-finite altitudes.
var ErrInvalidAltitude = errors.New("invalid altitude")

// State holds the atmospheric properties at one altitude.
type State struct {
	AltitudeKm   float64 `json:"altitude_km" yaml:"altitude_km"`
	AltitudeM    float64 `json:"altitude_m" yaml:"altitude_m"`
	TemperatureK float64 `json:"temperature_K" yaml:"temperature_K"`
	PressurePa   float64 `json:"pressure_Pa" yaml:"pressure_Pa"`
	PressureKPa  float64 `json:"pressure_kPa" yaml:"pressure_kPa"`
	DensityKgM3  float64 `json:"density_kg_m3" yaml:"density_kg_m3"`
	Layer        Layer   `json:"layer" yaml:"layer"`
}

// Compute returns the atmospheric state at altitudeKm kilometers above sea
// level. Altitudes below zero and NaN/Inf are rejected with ErrInvalidAltitude.
func Compute(altitudeKm float64) (State, error) {
	if math.IsNaN(altitudeKm) || math.IsInf(altitudeKm, 0) {
		return State{}, fmt.Errorf("%w: %v km is not finite", ErrInvalidAltitude, altitudeKm)
	}
	if altitudeKm < 0 {
		return State{}, fmt.Errorf("%w: %v km is below sea level", ErrInvalidAltitude, altitudeKm)
	}

	h := altitudeKm * 1000
	spec := LayerAt(h)
	T := spec.Temperature(h)
	P := spec.Pressure(h)

	return State{
		AltitudeKm:   altitudeKm,
		AltitudeM:    h,
		TemperatureK: T,
		PressurePa:   P,
		PressureKPa:  P / 1000,
		DensityKgM3:  P / (R * T),
		Layer:        spec.Layer,
	}, nil
}

// MustCompute is like Compute but panics on invalid input.
func MustCompute(altitudeKm float64) State {
	s, err := Compute(altitudeKm)
	if err != nil {
		panic(err)
	}
	return s
}

// ConsistentDensity recomputes the density from temperature and pressure.
func (s State) ConsistentDensity() float64 {
	return s.PressurePa / (R * s.TemperatureK)
}
