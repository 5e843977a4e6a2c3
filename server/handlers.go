package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/udawtr/isaglobe-go/atmosphere"
	"github.com/udawtr/isaglobe-go/globe"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// floatParam reads name from the route variables, then the query string.
// def is returned when the parameter is absent.
func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v, ok := mux.Vars(r)[name]
	if !ok {
		v = r.URL.Query().Get(name)
	}
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %q is not a number", name, v)
	}
	return f, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %q is not an integer", name, v)
	}
	return n, nil
}

func (s *Server) badRequest(w http.ResponseWriter, reason string, err error) {
	s.metrics.RecordRejected(reason)
	s.logger.Debugf("Rejected request: %v", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("Failed to write response: %v", err)
	}
}

// handleAtmosphere answers GET /atmosphere?alt=<km> and GET /atmosphere/<km>.
func (s *Server) handleAtmosphere(w http.ResponseWriter, r *http.Request) {
	alt, err := floatParam(r, "alt", atmosphere.DefaultAltitudeKm)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	state, err := atmosphere.Compute(alt)
	if err != nil {
		s.badRequest(w, "altitude", err)
		return
	}
	s.metrics.RecordState(state)
	s.writeJSON(w, state)
}

type profileResponse struct {
	Sweep   atmosphere.Sweep   `json:"sweep"`
	Summary atmosphere.Summary `json:"summary"`
	Samples []atmosphere.State `json:"samples"`
}

// handleProfile answers GET /profile?start=&end=&step=[&format=csv].
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	def := atmosphere.DefaultSweep
	start, err := floatParam(r, "start", def.StartKm)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	end, err := floatParam(r, "end", def.EndKm)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	step, err := floatParam(r, "step", def.StepKm)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}

	sw, err := atmosphere.NewSweep(start, end, step)
	if err != nil {
		s.badRequest(w, "sweep", err)
		return
	}
	if n := sw.Len(); n > s.Config.MaxSamples {
		s.badRequest(w, "samples", fmt.Errorf("profile of %d samples exceeds the limit of %d", n, s.Config.MaxSamples))
		return
	}

	p, err := atmosphere.ComputeProfile(r.Context(), sw, s.Config.Workers)
	if err != nil {
		if errors.Is(err, atmosphere.ErrInvalidAltitude) {
			s.badRequest(w, "altitude", err)
			return
		}
		s.logger.Errorf("Failed to compute profile: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordProfile(p)

	if r.URL.Query().Get("format") == "csv" {
		var buf bytes.Buffer
		p.ToCSV(&buf)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(buf.Bytes())
		return
	}
	s.writeJSON(w, profileResponse{Sweep: p.Sweep, Summary: p.Summarize(), Samples: p.States})
}

// handleGlobe answers GET /globe?alt=&rows=&cols= with the scene figure.
func (s *Server) handleGlobe(w http.ResponseWriter, r *http.Request) {
	alt, err := floatParam(r, "alt", atmosphere.DefaultAltitudeKm)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	rows, err := intParam(r, "rows", globe.DefaultRows)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	cols, err := intParam(r, "cols", globe.DefaultCols)
	if err != nil {
		s.badRequest(w, "parameter", err)
		return
	}
	if cols > 0 && rows > s.Config.MaxSamples/cols {
		s.badRequest(w, "samples", fmt.Errorf("grid of %dx%d exceeds the limit of %d vertices", rows, cols, s.Config.MaxSamples))
		return
	}

	sc, err := globe.NewScene(alt, rows, cols)
	switch {
	case errors.Is(err, atmosphere.ErrInvalidAltitude):
		s.badRequest(w, "altitude", err)
		return
	case errors.Is(err, globe.ErrInvalidGrid):
		s.badRequest(w, "grid", err)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordState(sc.State)

	var buf bytes.Buffer
	if err := sc.ToJSON(&buf); err != nil {
		s.logger.Errorf("Failed to encode scene: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(buf.Bytes())
}

func handleLayers(w http.ResponseWriter, r *http.Request) {
	if err := json.NewEncoder(w).Encode(atmosphere.Layers()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
