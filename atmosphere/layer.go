package atmosphere

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Physical constants of the standard atmosphere.
const (
	G0 = 9.80665 // standard gravity [m/s2]
	R  = 287.05  // specific gas constant of dry air [J/(kg K)]

	SeaLevelTemperature = 288.15 // [K]
	SeaLevelPressure    = 101325 // [Pa]
)

// Layer identifies one of the seven altitude bands of the model.
type Layer int

const (
	Troposphere Layer = iota
	LowerStratosphere
	MiddleStratosphere
	UpperStratosphere
	LowerMesosphere
	UpperMesosphere
	Thermosphere
)

var layerNames = [...]string{
	"troposphere",
	"lower stratosphere",
	"middle stratosphere",
	"upper stratosphere",
	"lower mesosphere",
	"upper mesosphere",
	"thermosphere",
}

var layerLabels = [...]string{
	"Troposphere",
	"Lower Stratosphere",
	"Middle Stratosphere",
	"Upper Stratosphere",
	"Lower Mesosphere",
	"Upper Mesosphere",
	"Thermosphere",
}

// String returns the lowercase layer name, e.g. "lower stratosphere".
func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "unknown"
	}
	return layerNames[l]
}

// Label returns the capitalized name used in the text report.
func (l Layer) Label() string {
	if l < 0 || int(l) >= len(layerLabels) {
		return "Unknown"
	}
	return layerLabels[l]
}

// MarshalText encodes the layer as its String name.
func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (l *Layer) UnmarshalText(text []byte) error {
	for i, name := range layerNames {
		if name == string(text) {
			*l = Layer(i)
			return nil
		}
	}
	return fmt.Errorf("unknown layer %q", text)
}

// LayerSpec is one row of the model table. The row covers the half-open
// interval [Base, Top) in meters; the last row has Top = +Inf.
type LayerSpec struct {
	Layer           Layer   `json:"layer" yaml:"layer"`
	Base            float64 `json:"base_m" yaml:"base_m"`
	Top             float64 `json:"top_m" yaml:"top_m"`
	BaseTemperature float64 `json:"base_temperature_K" yaml:"base_temperature_K"`
	LapseRate       float64 `json:"lapse_rate_K_per_m" yaml:"lapse_rate_K_per_m"`
	BasePressure    float64 `json:"base_pressure_Pa" yaml:"base_pressure_Pa"`
}

var layers = []LayerSpec{
	{Troposphere, 0, 11000, SeaLevelTemperature, -0.0065, SeaLevelPressure},
	{LowerStratosphere, 11000, 20000, 216.65, 0, 22632},
	{MiddleStratosphere, 20000, 32000, 216.65, 0.001, 5474.9},
	{UpperStratosphere, 32000, 47000, 228.65, 0.0028, 868.02},
	{LowerMesosphere, 47000, 51000, 270.65, 0, 110.91},
	{UpperMesosphere, 51000, 71000, 270.65, -0.0028, 66.94},
	{Thermosphere, 71000, math.Inf(1), 214.65, 0, 3.96},
}

// Layers returns a copy of the model table ordered by altitude.
func Layers() []LayerSpec {
	return append([]LayerSpec{}, layers...)
}

// LayerAt returns the row whose interval contains h [m], i.e. the row with the
// smallest Top strictly greater than h. Altitudes below zero fall into the
// first row.
func LayerAt(h float64) LayerSpec {
	i := sort.Search(len(layers), func(i int) bool {
		return layers[i].Top > h
	})
	if i == len(layers) {
		i = len(layers) - 1
	}
	return layers[i]
}

// MarshalJSON writes the open top of the last row as null.
func (s LayerSpec) MarshalJSON() ([]byte, error) {
	type row LayerSpec
	out := struct {
		row
		Top *float64 `json:"top_m"`
	}{row: row(s)}
	if !math.IsInf(s.Top, 1) {
		out.Top = &s.Top
	}
	return json.Marshal(out)
}

// Isothermal reports whether the row has zero lapse rate.
func (s LayerSpec) Isothermal() bool {
	return s.LapseRate == 0
}

// Temperature at h [m] in kelvin.
func (s LayerSpec) Temperature(h float64) float64 {
	return s.BaseTemperature + s.LapseRate*(h-s.Base)
}

// Pressure at h [m] in pascals, from the hydrostatic equation and the ideal
// gas law solved for the row's temperature profile.
func (s LayerSpec) Pressure(h float64) float64 {
	if s.Isothermal() {
		return s.BasePressure * math.Exp(-G0*(h-s.Base)/(R*s.BaseTemperature))
	}
	T := s.Temperature(h)
	return s.BasePressure * math.Pow(T/s.BaseTemperature, -G0/(s.LapseRate*R))
}
