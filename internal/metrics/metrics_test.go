package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Operation("wallet_balance", "ok")
	m.Operation("wallet_balance", "ok")
	m.Operation("wallet_balance", "invalid_key")
	m.KeyRotated()
	m.Transfer("send")
	m.ReconcileFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("wallet_balance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("wallet_balance", "invalid_key")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.keyRotations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transfers.WithLabelValues("send")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Operation("x", "y")
		m.KeyRotated()
		m.Transfer("send")
		m.ReconcileFailed()
	})
}
