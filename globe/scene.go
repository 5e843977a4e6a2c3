package globe

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/udawtr/isaglobe-go/atmosphere"
)

// Scene is the sphere, the marker and the state computed at the marker's
// altitude.
type Scene struct {
	Sphere Sphere
	Marker Marker
	State  atmosphere.State
}

// NewScene computes the state at altitudeKm and builds the sphere around it.
func NewScene(altitudeKm float64, rows, cols int) (Scene, error) {
	state, err := atmosphere.Compute(altitudeKm)
	if err != nil {
		return Scene{}, err
	}
	sphere, err := NewSphere(rows, cols)
	if err != nil {
		return Scene{}, err
	}
	return Scene{
		Sphere: sphere,
		Marker: NewMarker(altitudeKm),
		State:  state,
	}, nil
}

type figure struct {
	Data   []interface{}     `json:"data"`
	Layout layout            `json:"layout"`
	State  *atmosphere.State `json:"state,omitempty"`
}

type surfaceTrace struct {
	Type       string      `json:"type"`
	X          [][]float64 `json:"x"`
	Y          [][]float64 `json:"y"`
	Z          [][]float64 `json:"z"`
	Colorscale string      `json:"colorscale"`
	Opacity    float64     `json:"opacity"`
	ShowScale  bool        `json:"showscale"`
}

type markerStyle struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type scatterTrace struct {
	Type         string      `json:"type"`
	X            []float64   `json:"x"`
	Y            []float64   `json:"y"`
	Z            []float64   `json:"z"`
	Mode         string      `json:"mode"`
	Marker       markerStyle `json:"marker"`
	Text         []string    `json:"text"`
	TextPosition string      `json:"textposition"`
}

type axis struct {
	Title string `json:"title"`
}

type xyz struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type layout struct {
	Scene struct {
		XAxis      axis   `json:"xaxis"`
		YAxis      axis   `json:"yaxis"`
		ZAxis      axis   `json:"zaxis"`
		AspectMode string `json:"aspectmode"`
		Camera     struct {
			Eye xyz `json:"eye"`
		} `json:"camera"`
	} `json:"scene"`
	Margin map[string]int `json:"margin"`
}

func (sc Scene) figure() figure {
	var l layout
	l.Scene.XAxis = axis{"X (km)"}
	l.Scene.YAxis = axis{"Y (km)"}
	l.Scene.ZAxis = axis{"Z (km)"}
	l.Scene.AspectMode = "data"
	l.Scene.Camera.Eye = xyz{1.5, 1.5, 1}
	l.Margin = map[string]int{"l": 0, "r": 0, "t": 0, "b": 0}

	p := sc.Marker.Position
	state := sc.State
	return figure{
		Data: []interface{}{
			surfaceTrace{
				Type:       "surface",
				X:          sc.Sphere.X,
				Y:          sc.Sphere.Y,
				Z:          sc.Sphere.Z,
				Colorscale: "Blues",
				Opacity:    0.9,
			},
			scatterTrace{
				Type:         "scatter3d",
				X:            []float64{p.X},
				Y:            []float64{p.Y},
				Z:            []float64{p.Z},
				Mode:         "markers+text",
				Marker:       markerStyle{Size: 6, Color: "red"},
				Text:         []string{sc.Marker.Label},
				TextPosition: "top center",
			},
		},
		Layout: l,
		State:  &state,
	}
}

// ToJSON writes the scene as a figure with a surface trace, a scatter3d
// marker trace and the computed state.
func (sc Scene) ToJSON(buf *bytes.Buffer) error {
	if err := json.NewEncoder(buf).Encode(sc.figure()); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}
