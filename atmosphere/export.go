package atmosphere

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ToText writes the Markdown info block for a single altitude.
func (s State) ToText(buf *bytes.Buffer) {
	buf.WriteString(fmt.Sprintf("### Altitude %.1f km\n", s.AltitudeKm))
	buf.WriteString(fmt.Sprintf("- Layer: **%s**\n", s.Layer.Label()))
	buf.WriteString(fmt.Sprintf("- Temperature: **%.1f K**\n", s.TemperatureK))
	buf.WriteString(fmt.Sprintf("- Pressure: **%.2f kPa**\n", s.PressureKPa))
	buf.WriteString(fmt.Sprintf("- Density: **%.4f kg/m³**\n", s.DensityKgM3))
}

// ToYAML writes the state as a YAML document.
func (s State) ToYAML(buf *bytes.Buffer) error {
	return writeYAML(buf, s)
}

// ToCSV writes one row per sample. Floats are written with the shortest representation that round-trips.
func (p Profile) ToCSV(buf *bytes.Buffer) {
	buf.WriteString("altitude_km")
	buf.WriteString(",temperature_K")
	buf.WriteString(",pressure_kPa")
	buf.WriteString(",pressure_Pa")
	buf.WriteString(",density_kg_m3")
	buf.WriteString(",layer")
	buf.WriteString("\n")

	writeFloat := func(v float64) {
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	for _, s := range p.States {
		buf.WriteString(strconv.FormatFloat(s.AltitudeKm, 'f', -1, 64))
		writeFloat(s.TemperatureK)
		writeFloat(s.PressureKPa)
		writeFloat(s.PressurePa)
		writeFloat(s.DensityKgM3)
		buf.WriteString(",")
		buf.WriteString(s.Layer.String())
		buf.WriteString("\n")
	}
}

// ToText writes one info block per sample separated by blank lines.
func (p Profile) ToText(buf *bytes.Buffer) {
	for i, s := range p.States {
		if i > 0 {
			buf.WriteString("\n")
		}
		s.ToText(buf)
	}
}

// ToYAML writes the sweep, its summary and all samples as a YAML document.
func (p Profile) ToYAML(buf *bytes.Buffer) error {
	doc := struct {
		Sweep   Sweep   `yaml:"sweep"`
		Summary Summary `yaml:"summary"`
		Samples []State `yaml:"samples"`
	}{p.Sweep, p.Summarize(), p.States}
	return writeYAML(buf, doc)
}

func writeYAML(buf *bytes.Buffer, v interface{}) error {
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
