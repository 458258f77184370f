package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "200"))
	RecordAPIRequest("GET", "/v1/movies/:id", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/v1/movies/:id", "200"))

	assert.Equal(t, before+1, after)
}

func TestRecordMutation(t *testing.T) {
	c := MutationsTotal.WithLabelValues("event.join", "CAPACITY")
	before := testutil.ToFloat64(c)
	RecordMutation("event.join", "CAPACITY")
	RecordMutation("event.join", "CAPACITY")

	assert.Equal(t, before+2, testutil.ToFloat64(c))
}
