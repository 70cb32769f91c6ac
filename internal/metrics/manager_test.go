package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterPoseMessages.WithLabelValues("ok").Add(2)
	m.CounterReps.WithLabelValues("Bicep Curls").Inc()
	m.CounterCatalogReloads.WithLabelValues("ok").Inc()
	m.GaugeSessions.Inc()
	m.HistRequestDuration.Observe(0.01)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterPoseMessages.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GaugeSessions))
}

func TestNewManager_SeparateRegistries(t *testing.T) {
	a := NewTestManager()
	b := NewTestManager()

	a.CounterHandleRequestPanic.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.CounterHandleRequestPanic))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.CounterHandleRequestPanic))
}
