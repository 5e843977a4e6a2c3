package atmosphere

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidSweep is returned for malformed sweep parameters.
var ErrInvalidSweep = errors.New("invalid sweep")

// Sweep is an evenly spaced altitude range in kilometers, both ends included.
type Sweep struct {
	StartKm float64 `json:"start_km" yaml:"start_km"`
	EndKm   float64 `json:"end_km" yaml:"end_km"`
	StepKm  float64 `json:"step_km" yaml:"step_km"`
}

// DefaultAltitudeKm is the initial position of the interactive altitude selector.
const DefaultAltitudeKm = 1.0

// DefaultSweep matches the range and step of the interactive altitude selector.
var DefaultSweep = Sweep{StartKm: 0, EndKm: 100, StepKm: 0.5}

// MaxSweepSamples is the largest sweep NewSweep accepts.
const MaxSweepSamples = 1_000_000

// NewSweep validates the range and returns it.
func NewSweep(startKm, endKm, stepKm float64) (Sweep, error) {
	for _, v := range []float64{startKm, endKm, stepKm} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sweep{}, fmt.Errorf("%w: %v is not finite", ErrInvalidSweep, v)
		}
	}
	if startKm < 0 {
		return Sweep{}, fmt.Errorf("%w: start %v km is below sea level", ErrInvalidSweep, startKm)
	}
	if endKm < startKm {
		return Sweep{}, fmt.Errorf("%w: end %v km is below start %v km", ErrInvalidSweep, endKm, startKm)
	}
	if stepKm <= 0 {
		return Sweep{}, fmt.Errorf("%w: step %v km must be positive", ErrInvalidSweep, stepKm)
	}
	sw := Sweep{StartKm: startKm, EndKm: endKm, StepKm: stepKm}
	if n := sw.count(); !(n <= MaxSweepSamples) {
		return Sweep{}, fmt.Errorf("%w: %g samples exceed the limit of %d", ErrInvalidSweep, n, MaxSweepSamples)
	}
	return sw, nil
}

// count is the unbounded sample count; NaN for the zero Sweep.
func (sw Sweep) count() float64 {
	return math.Floor((sw.EndKm-sw.StartKm)/sw.StepKm+1e-9) + 1
}

// Len returns the number of samples in the sweep, or 0 when the sweep is
// malformed or larger than MaxSweepSamples.
func (sw Sweep) Len() int {
	n := sw.count()
	if !(n >= 1 && n <= MaxSweepSamples) {
		return 0
	}
	return int(n)
}

// Altitudes returns the sample altitudes in kilometers, nil when Len is 0.
func (sw Sweep) Altitudes() []float64 {
	n := sw.Len()
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{sw.StartKm}
	}
	return floats.Span(make([]float64, n), sw.StartKm, sw.StartKm+float64(n-1)*sw.StepKm)
}

// Profile is the atmospheric state sampled along a sweep.
type Profile struct {
	Sweep  Sweep   `json:"sweep" yaml:"sweep"`
	States []State `json:"samples" yaml:"samples"`
}

type indexedState struct {
	index int
	state State
	err   error
}

// ComputeProfile evaluates every altitude of the sweep using up to workers
// goroutines. States are returned in altitude order. workers < 1 uses
// GOMAXPROCS.
func ComputeProfile(ctx context.Context, sw Sweep, workers int) (Profile, error) {
	alts := sw.Altitudes()
	if len(alts) == 0 {
		return Profile{}, fmt.Errorf("%w: %+v has no samples", ErrInvalidSweep, sw)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(alts) {
		workers = len(alts)
	}

	jobs := make(chan int)
	c := make(chan indexedState, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := Compute(alts[i])
				c <- indexedState{i, s, err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range alts {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(c)
	}()

	states := make([]State, len(alts))
	var firstErr error
	for ret := range c {
		if ret.err != nil && firstErr == nil {
			firstErr = ret.err
		}
		states[ret.index] = ret.state
	}

	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	if firstErr != nil {
		return Profile{}, firstErr
	}
	return Profile{Sweep: sw, States: states}, nil
}

// Stat summarizes one quantity of a profile.
type Stat struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// Summary describes a profile.
type Summary struct {
	Samples     int            `json:"samples" yaml:"samples"`
	Temperature Stat           `json:"temperature_K" yaml:"temperature_K"`
	PressureKPa Stat           `json:"pressure_kPa" yaml:"pressure_kPa"`
	Density     Stat           `json:"density_kg_m3" yaml:"density_kg_m3"`
	Layers      map[string]int `json:"layers" yaml:"layers"`
}

// Summarize computes min/max/mean/median of temperature, pressure and density
// and counts samples per layer.
func (p Profile) Summarize() Summary {
	n := len(p.States)
	T := make([]float64, n)
	P := make([]float64, n)
	rho := make([]float64, n)
	layerCount := map[string]int{}
	for i, s := range p.States {
		T[i] = s.TemperatureK
		P[i] = s.PressureKPa
		rho[i] = s.DensityKgM3
		layerCount[s.Layer.String()]++
	}
	return Summary{
		Samples:     n,
		Temperature: newStat(T),
		PressureKPa: newStat(P),
		Density:     newStat(rho),
		Layers:      layerCount,
	}
}

func newStat(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}
	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, _ := fn()
		return out
	}
	statsData := stats.Float64Data(data)
	return Stat{
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   statsMustFloat(statsData.Mean),
		Median: statsMustFloat(statsData.Median),
	}
}
