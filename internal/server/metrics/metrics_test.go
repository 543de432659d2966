package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/capsules", "200"))

	RecordRequest("GET", "/api/capsules", "200", 0.02)

	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/capsules", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordSweep(t *testing.T) {
	runs := testutil.ToFloat64(SweepsTotal.WithLabelValues("ok"))
	cands := testutil.ToFloat64(SweepCandidates)

	RecordSweep("ok", 3, 0.5)

	assert.Equal(t, runs+1, testutil.ToFloat64(SweepsTotal.WithLabelValues("ok")))
	assert.Equal(t, cands+3, testutil.ToFloat64(SweepCandidates))
}
