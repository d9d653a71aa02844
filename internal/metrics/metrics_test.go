package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTurn(t *testing.T) {
	m := New()
	m.ObserveTurn(OutcomeOK, 50*time.Millisecond)
	m.ObserveTurn(OutcomeRemoteOverload, time.Second)
	m.ObserveTurn(OutcomeOK, 10*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeOK)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeRemoteOverload)), 1e-9)
}

func TestRecordRemoteCall(t *testing.T) {
	m := New()
	m.RecordRemoteCall("query")
	m.RecordRemoteCall("query")

	assert.InDelta(t, 2, testutil.ToFloat64(m.RemoteCalls.WithLabelValues("query")), 1e-9)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	// Instrumentation is optional; a nil Metrics must be a no-op.
	m.ObserveTurn(OutcomeOK, time.Second)
	m.RecordRemoteCall("query")
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveTurn(OutcomeOK, time.Second)

	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
