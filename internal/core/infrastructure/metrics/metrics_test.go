package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

func TestMetrics_RecordsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveRPC("eth_call", time.Now(), nil)
	m.ObserveRPC("eth_call", time.Now(), sdkerrors.Network("down", 1, errors.New("dial")))
	m.ObserveContract("events", "call", nil)
	m.ObserveCache("memory", true)
	m.ObserveCache("memory", false)
	m.SetIndexedBlock(1234)
	m.ObserveIndexedLog("Transfer")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcCalls.WithLabelValues("eth_call", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcCalls.WithLabelValues("eth_call", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("NetworkError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.contractCalls.WithLabelValues("events", "call", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, 1234.0, testutil.ToFloat64(m.indexedBlock))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.indexedLogs.WithLabelValues("Transfer")))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.NoError(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("eth_call", time.Now(), nil)
	m.ObserveError(errors.New("x"))
	m.SetIndexedBlock(1)
}
