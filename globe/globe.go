// Package globe builds the Earth sphere mesh and the altitude marker drawn
// above it.
package globe

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/floats"
)

// EarthRadiusKm is the mean Earth radius used for the sphere and the marker.
const EarthRadiusKm = 6371.0

// DefaultRows and DefaultCols give a 100 x 100 surface grid.
const (
	DefaultRows = 100
	DefaultCols = 100
)

// MaxVertices caps rows x cols of a sphere.
const MaxVertices = 1_000_000

// ErrInvalidGrid is returned when a sphere is requested with fewer than two
// rows or columns, or with more than MaxVertices vertices.
var ErrInvalidGrid = errors.New("invalid grid")

// Marker is the point drawn at the queried altitude above the north pole.
type Marker struct {
	AltitudeKm float64
	Position   r3.Vector
	LatLng     s2.LatLng
	Label      string
}

// NewMarker places a marker at EarthRadiusKm + altitudeKm on the z axis.
func NewMarker(altitudeKm float64) Marker {
	pos := r3.Vector{X: 0, Y: 0, Z: EarthRadiusKm + altitudeKm}
	return Marker{
		AltitudeKm: altitudeKm,
		Position:   pos,
		LatLng:     s2.LatLngFromPoint(s2.Point{Vector: pos.Normalize()}),
		Label:      fmt.Sprintf("%.1f km", altitudeKm),
	}
}

// Radius returns the marker distance from the Earth center in kilometers.
func (m Marker) Radius() float64 {
	return m.Position.Norm()
}

// Sphere is a rows x cols surface grid. X[i][j], Y[i][j], Z[i][j] are the
// coordinates at polar angle theta_i and azimuth phi_j.
type Sphere struct {
	Radius float64
	X      [][]float64
	Y      [][]float64
	Z      [][]float64
}

// NewSphere builds the Earth surface with theta in [0, pi] and phi in
// [0, 2pi], both ends included.
func NewSphere(rows, cols int) (Sphere, error) {
	if rows < 2 || cols < 2 {
		return Sphere{}, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	if rows > MaxVertices/cols {
		return Sphere{}, fmt.Errorf("%w: %dx%d exceeds %d vertices", ErrInvalidGrid, rows, cols, MaxVertices)
	}
	theta := floats.Span(make([]float64, rows), 0, math.Pi)
	phi := floats.Span(make([]float64, cols), 0, 2*math.Pi)

	s := Sphere{
		Radius: EarthRadiusKm,
		X:      make([][]float64, rows),
		Y:      make([][]float64, rows),
		Z:      make([][]float64, rows),
	}
	for i, th := range theta {
		s.X[i] = make([]float64, cols)
		s.Y[i] = make([]float64, cols)
		s.Z[i] = make([]float64, cols)
		sinTh, cosTh := math.Sincos(th)
		for j, ph := range phi {
			sinPh, cosPh := math.Sincos(ph)
			s.X[i][j] = s.Radius * sinTh * cosPh
			s.Y[i][j] = s.Radius * sinTh * sinPh
			s.Z[i][j] = s.Radius * cosTh
		}
	}
	return s, nil
}

// Point returns the grid vertex at row i, column j.
func (s Sphere) Point(i, j int) r3.Vector {
	return r3.Vector{X: s.X[i][j], Y: s.Y[i][j], Z: s.Z[i][j]}
}

// Rows and Cols of the grid.
func (s Sphere) Rows() int { return len(s.X) }

func (s Sphere) Cols() int {
	if len(s.X) == 0 {
		return 0
	}
	return len(s.X[0])
}
