package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udawtr/isaglobe-go/atmosphere"
)

func Test_RecordState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCollector(reg)

	s := atmosphere.MustCompute(11)
	m.RecordState(s)
	m.RecordState(atmosphere.MustCompute(12))

	assert.Equal(t, 12000.0, testutil.ToFloat64(m.altitudeGauge))
	assert.Equal(t, 216.65, testutil.ToFloat64(m.temperatureGauge))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("lower stratosphere")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("troposphere")))
}

func Test_RecordProfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCollector(reg)

	sw, err := atmosphere.NewSweep(0, 12, 1)
	require.NoError(t, err)
	p, err := atmosphere.ComputeProfile(context.Background(), sw, 2)
	require.NoError(t, err)
	m.RecordProfile(p)

	assert.Equal(t, 11.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("troposphere")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("lower stratosphere")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.altitudeGauge))
}

func Test_RecordRejected(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCollector(reg)
	m.RecordRejected("altitude")
	m.RecordRejected("altitude")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejectedTotal.WithLabelValues("altitude")))

	n, err := testutil.GatherAndCount(reg, "isa_rejected_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
