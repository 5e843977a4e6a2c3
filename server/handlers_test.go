package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestServer() *Server {
	c := DefaultConfig()
	c.AccessLog = nil
	c.MaxSamples = 1000
	return New(c)
}

func get(t *testing.T, s *Server, target string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "http://isaglobe.local"+target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_ping(t *testing.T) {
	req := httptest.NewRequest("GET", "http://isaglobe.local/ping", nil)
	w := httptest.NewRecorder()
	pingPong(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestServer_atmosphere(t *testing.T) {
	s := newTestServer()

	resp, body := get(t, s, "/atmosphere?alt=11")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "lower stratosphere", gjson.Get(body, "layer").String())
	assert.InDelta(t, 216.65, gjson.Get(body, "temperature_K").Float(), 1e-9)
	assert.InDelta(t, 22.632, gjson.Get(body, "pressure_kPa").Float(), 1e-9)

	resp, body = get(t, s, "/atmosphere/0")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "troposphere", gjson.Get(body, "layer").String())
	assert.InDelta(t, 1.225, gjson.Get(body, "density_kg_m3").Float(), 0.001)

	// default altitude
	_, body = get(t, s, "/atmosphere")
	assert.Equal(t, 1.0, gjson.Get(body, "altitude_km").Float())
}

func TestServer_atmosphere_Invalid(t *testing.T) {
	s := newTestServer()
	for _, q := range []string{"/atmosphere?alt=-1", "/atmosphere?alt=NaN", "/atmosphere?alt=Inf", "/atmosphere?alt=high", "/atmosphere/-3"} {
		resp, body := get(t, s, q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s: %s", q, body)
	}

	_, body := get(t, s, "/metrics")
	assert.Contains(t, body, `isa_rejected_queries_total{reason="altitude"} 4`)
	assert.Contains(t, body, `isa_rejected_queries_total{reason="parameter"} 1`)
}

func TestServer_profile(t *testing.T) {
	s := newTestServer()

	resp, body := get(t, s, "/profile?start=0&end=20&step=5")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(5), gjson.Get(body, "samples.#").Int())
	assert.Equal(t, int64(5), gjson.Get(body, "summary.samples").Int())
	assert.Equal(t, "middle stratosphere", gjson.Get(body, "samples.4.layer").String())
	assert.Equal(t, int64(3), gjson.Get(body, "summary.layers.troposphere").Int())
	assert.Equal(t, 5.0, gjson.Get(body, "sweep.step_km").Float())

	resp, body = get(t, s, "/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(201), gjson.Get(body, "samples.#").Int())
}

func TestServer_profile_CSV(t *testing.T) {
	s := newTestServer()
	resp, body := get(t, s, "/profile?start=0&end=1&step=0.5&format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "0.5,"))
}

func TestServer_profile_Invalid(t *testing.T) {
	s := newTestServer()
	for _, q := range []string{
		"/profile?start=-1",
		"/profile?step=0",
		"/profile?start=10&end=5",
		"/profile?step=abc",
		"/profile?start=0&end=100&step=0.01", // 10001 samples
		"/profile?start=0&end=1000&step=1",   // one above the limit
		"/profile?end=1e20&step=1",
		"/profile?end=1e308&step=1e-300",
	} {
		resp, body := get(t, s, q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s: %s", q, body)
	}

	resp, body := get(t, s, "/profile?start=0&end=999&step=1")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(1000), gjson.Get(body, "samples.#").Int())
}

func TestServer_globe(t *testing.T) {
	s := newTestServer()

	resp, body := get(t, s, "/globe?alt=20&rows=10&cols=20")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(10), gjson.Get(body, "data.0.x.#").Int())
	assert.Equal(t, int64(20), gjson.Get(body, "data.0.x.0.#").Int())
	assert.InDelta(t, 6391.0, gjson.Get(body, "data.1.z.0").Float(), 1e-9)
	assert.Equal(t, "middle stratosphere", gjson.Get(body, "state.layer").String())

	for _, q := range []string{
		"/globe?alt=-5&rows=10&cols=10",
		"/globe?rows=1&cols=10",
		"/globe?rows=x",
		"/globe?rows=100&cols=100",
		"/globe?rows=501&cols=2",
		"/globe?rows=4611686018427387904&cols=4",
		"/globe?rows=4&cols=4611686018427387904",
		"/globe?rows=-4611686018427387904&cols=-4",
	} {
		resp, body := get(t, s, q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s: %s", q, body)
	}

	resp, body = get(t, s, "/globe?rows=500&cols=2")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(500), gjson.Get(body, "data.0.x.#").Int())
}

func TestServer_layers(t *testing.T) {
	s := newTestServer()
	resp, body := get(t, s, "/layers")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, int64(7), gjson.Get(body, "#").Int())
	assert.Equal(t, "troposphere", gjson.Get(body, "0.layer").String())
	assert.Equal(t, -0.0065, gjson.Get(body, "0.lapse_rate_K_per_m").Float())
	assert.Equal(t, gjson.Null, gjson.Get(body, "6.top_m").Type)
}

func TestServer_metrics(t *testing.T) {
	s := newTestServer()
	get(t, s, "/atmosphere?alt=50")

	resp, body := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "isa_temperature_kelvin 270.65")
	assert.Contains(t, body, `isa_queries_total{layer="lower mesosphere"} 1`)
}

func TestServer_Run(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := DefaultConfig()
	c.Addr = addr
	c.AccessLog = nil
	s := New(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/ping")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
